package approval

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type StageRecord struct {
	Status       StageStatus `json:"status"`
	ApprovalDate *time.Time  `json:"approvalDate,omitempty"`
	Comments     string      `json:"comments,omitempty"`
}

// Request is the routing-relevant shape shared by leave, loan and travel requests.
type Request struct {
	ID                     string               `json:"id"`
	Type                   RequestType          `json:"type"`
	EmployeeID             string               `json:"employeeId"`
	Status                 Status               `json:"status"`
	CurrentApproverRole    Role                 `json:"currentApproverRole,omitempty"`
	AmountRequested        decimal.Decimal      `json:"amountRequested"`
	RequiresSeniorApproval bool                 `json:"requiresSeniorApproval"`
	Stages                 map[Role]StageRecord `json:"stages"`
	Details                json.RawMessage      `json:"details,omitempty"`
	CreatedAt              time.Time            `json:"createdAt"`
	UpdatedAt              time.Time            `json:"updatedAt"`
}

// Stage returns the audit record for role, or a zero record if the role is not in the chain.
func (r Request) Stage(role Role) StageRecord {
	return r.Stages[role]
}

func (r Request) clone() Request {
	out := r
	out.Stages = make(map[Role]StageRecord, len(r.Stages))
	for role, rec := range r.Stages {
		if rec.ApprovalDate != nil {
			d := *rec.ApprovalDate
			rec.ApprovalDate = &d
		}
		out.Stages[role] = rec
	}
	if r.Details != nil {
		out.Details = append(json.RawMessage(nil), r.Details...)
	}
	return out
}

type SubmitInput struct {
	Type            RequestType
	EmployeeID      string
	AmountRequested decimal.Decimal
	Details         json.RawMessage
}

type DecisionInput struct {
	Decision Decision
	Comments string
}
