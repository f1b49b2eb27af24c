package approval

import "strings"

type RequestType string

const (
	TypeLeave  RequestType = "leave"
	TypeLoan   RequestType = "loan"
	TypeTravel RequestType = "travel"
)

var RequestTypes = []RequestType{TypeLeave, TypeLoan, TypeTravel}

func (t RequestType) Valid() bool {
	switch t {
	case TypeLeave, TypeLoan, TypeTravel:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further approval action is possible.
func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPending
}

// Role is an approval stage, named after the role whose decision it awaits.
type Role string

const (
	RoleManager          Role = "manager"
	RoleHR               Role = "hr"
	RoleFinance          Role = "finance"
	RoleSeniorManagement Role = "senior_management"
)

var Roles = []Role{RoleManager, RoleHR, RoleFinance, RoleSeniorManagement}

func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleHR, RoleFinance, RoleSeniorManagement:
		return true
	}
	return false
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

type StageStatus string

const (
	StagePending  StageStatus = "pending"
	StageApproved StageStatus = "approved"
	StageRejected StageStatus = "rejected"
)

func ParseRequestType(raw string) (RequestType, error) {
	t := RequestType(normalize(raw))
	if !t.Valid() {
		return "", ErrUnknownRequestType
	}
	return t, nil
}

func ParseRole(raw string) (Role, error) {
	r := Role(normalize(raw))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

func ParseDecision(raw string) (Decision, error) {
	d := Decision(normalize(raw))
	if !d.Valid() {
		return "", ErrUnknownDecision
	}
	return d, nil
}

func ParseStatus(raw string) (Status, error) {
	s := Status(normalize(raw))
	if !s.Valid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
