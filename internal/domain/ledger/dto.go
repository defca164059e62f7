package ledger

import "time"

// AwardRequest credits points to a member by id.
type AwardRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Note   string `json:"note" validate:"max=200"`
}

// AdjustmentRequest is a signed manager correction.
type AdjustmentRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Amount int64  `json:"amount" validate:"nonzero"`
	Note   string `json:"note" validate:"max=200"`
}

// ExportRequest selects the transactions written by an export.
type ExportRequest struct {
	UserID  *int64     `json:"user_id,omitempty"`
	ActorID *int64     `json:"actor_id,omitempty"`
	Kind    Kind       `json:"kind,omitempty"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
}

func (r ExportRequest) Filter() SearchFilter {
	return SearchFilter{MemberID: r.UserID, ActorID: r.ActorID, Kind: r.Kind, From: r.From, To: r.To}
}

// TransactionResponse is the wire shape of a transaction.
type TransactionResponse struct {
	ID           int64     `json:"id"`
	Kind         Kind      `json:"kind"`
	Amount       int64     `json:"amount"`
	UserID       int64     `json:"user_id"`
	CreatedBy    int64     `json:"created_by"`
	Note         string    `json:"note,omitempty"`
	RedemptionID *int64    `json:"redemption_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (t *Transaction) ToResponse() *TransactionResponse {
	return &TransactionResponse{
		ID:           t.ID,
		Kind:         t.Kind,
		Amount:       t.Amount,
		UserID:       t.MemberID,
		CreatedBy:    t.ActorID,
		Note:         t.Note,
		RedemptionID: t.RedemptionID,
		CreatedAt:    t.CreatedAt,
	}
}

func toResponses(items []*Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, t.ToResponse())
	}
	return out
}
