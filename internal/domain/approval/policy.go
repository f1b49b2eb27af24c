package approval

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"gopkg.in/yaml.v3"
)

const (
	actionAct  = "act"
	actionView = "view"
)

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

//go:embed policy_default.yaml
var defaultPolicyYAML []byte

type PolicyFile struct {
	Version    int                        `yaml:"version"`
	Principals map[string]PrincipalStages `yaml:"principals"`
}

type PrincipalStages struct {
	Act  []string `yaml:"act"`
	View []string `yaml:"view"`
}

// Policy decides which approval stages a principal role may see and act on.
type Policy struct {
	enforcer *casbin.Enforcer
	visible  map[string][]Role
}

func ParsePolicyYAML(b []byte) (*Policy, error) {
	var f PolicyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("approval policy: %w", err)
	}
	if f.Version != 1 {
		return nil, errors.New("approval policy: unsupported version")
	}
	if len(f.Principals) == 0 {
		return nil, errors.New("approval policy: no principals")
	}

	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	p := &Policy{enforcer: enforcer, visible: map[string][]Role{}}
	for principal, stages := range f.Principals {
		principal = normalize(principal)
		if err := p.add(principal, actionAct, stages.Act); err != nil {
			return nil, err
		}
		if err := p.add(principal, actionView, stages.View); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// LoadPolicy reads the policy at path, or the built-in policy when path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPolicy()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePolicyYAML(b)
}

func DefaultPolicy() (*Policy, error) {
	return ParsePolicyYAML(defaultPolicyYAML)
}

func (p *Policy) add(principal, action string, stages []string) error {
	for _, raw := range stages {
		stage, err := ParseRole(raw)
		if err != nil {
			return fmt.Errorf("approval policy: principal %q: %w: %q", principal, err, raw)
		}
		if _, err := p.enforcer.AddPolicy(principal, string(stage), action); err != nil {
			return err
		}
		if action == actionView {
			p.visible[principal] = append(p.visible[principal], stage)
		}
	}
	return nil
}

func (p *Policy) allowed(principal string, stage Role, action string) bool {
	ok, err := p.enforcer.Enforce(normalize(principal), string(stage), action)
	return err == nil && ok
}

func (p *Policy) CanAct(principal string, stage Role) bool {
	return p.allowed(principal, stage, actionAct)
}

func (p *Policy) CanView(principal string, stage Role) bool {
	return p.allowed(principal, stage, actionView)
}

// VisibleStages lists the stages whose pending requests show up for principal.
func (p *Policy) VisibleStages(principal string) []Role {
	stages := append([]Role(nil), p.visible[normalize(principal)]...)
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	return stages
}

// ActingRole resolves the approver role principal acts as on req. The result is always
// req.CurrentApproverRole, so Advance still sees an exact stage match.
func (p *Policy) ActingRole(principal string, req Request) (Role, error) {
	if req.Status != StatusPending {
		return "", fmt.Errorf("%w: request is %s", ErrStageMismatch, req.Status)
	}
	if !p.CanAct(principal, req.CurrentApproverRole) {
		return "", fmt.Errorf("%w: %q at stage %q", ErrActorNotPermitted, principal, req.CurrentApproverRole)
	}
	return req.CurrentApproverRole, nil
}

// PendingFor keeps the pending requests whose current stage principal may see.
func (p *Policy) PendingFor(requests []Request, principal string) []Request {
	out := make([]Request, 0, len(requests))
	for _, req := range requests {
		if req.Status == StatusPending && p.CanView(principal, req.CurrentApproverRole) {
			out = append(out, req)
		}
	}
	return out
}
