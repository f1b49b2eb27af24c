package approval

type chainDef struct {
	stages   []Role
	terminal Status
}

// chains is the single table of approval chains. Adding a RequestType without an
// entry here makes ChainFor return nil and every Advance on it fail.
var chains = map[RequestType]chainDef{
	TypeLeave:  {stages: []Role{RoleManager, RoleHR}, terminal: StatusApproved},
	TypeTravel: {stages: []Role{RoleManager, RoleFinance}, terminal: StatusApproved},
	TypeLoan:   {stages: []Role{RoleManager, RoleHR}, terminal: StatusApproved},
}

// ChainFor returns the ordered stages the request must pass. High-value loans get a
// trailing senior_management stage; the flag is fixed when the request is created.
func ChainFor(req Request) []Role {
	def, ok := chains[req.Type]
	if !ok {
		return nil
	}
	out := make([]Role, len(def.stages), len(def.stages)+1)
	copy(out, def.stages)
	if req.Type == TypeLoan && req.RequiresSeniorApproval {
		out = append(out, RoleSeniorManagement)
	}
	return out
}

func terminalStatus(t RequestType) Status {
	if def, ok := chains[t]; ok {
		return def.terminal
	}
	return StatusApproved
}

// nextStage returns the stage after current, or "" when current is the last one.
// ok is false when current is not part of the chain at all.
func nextStage(chain []Role, current Role) (next Role, ok bool) {
	for i, stage := range chain {
		if stage != current {
			continue
		}
		if i+1 < len(chain) {
			return chain[i+1], true
		}
		return "", true
	}
	return "", false
}
