package approval

import "errors"

var (
	ErrUnknownRequestType      = errors.New("unknown request type")
	ErrUnknownRole             = errors.New("unknown approver role")
	ErrUnknownDecision         = errors.New("decision must be approve or reject")
	ErrUnknownStatus           = errors.New("unknown request status")
	ErrStageMismatch           = errors.New("request is not awaiting this approver role")
	ErrRejectionReasonRequired = errors.New("comments are required to reject a request")
	ErrInvalidTransition       = errors.New("transition not allowed from current state")
	ErrInvalidAmount           = errors.New("loan amount must be positive")
	ErrActorNotPermitted       = errors.New("principal may not act on this approval stage")
	ErrNotEmployeeManager      = errors.New("manager does not manage the requesting employee")
	ErrNotRequestOwner         = errors.New("only the requesting employee may do this")
	ErrRequestNotFound         = errors.New("approval request not found")
	ErrStaleRequest            = errors.New("approval request changed since it was read")
)
