// Package qrcode encodes and decodes the text carried by loyalty QR codes.
//
// Two payload shapes exist:
//
//	{"type":"user","userId":1,"utorid":"user0001"}
//	{"type":"redemption","requestId":12,"amount":50}
//
// Decode never panics and accepts only JSON integers for ids and amounts.
package qrcode

// Type discriminates payloads on the wire.
type Type string

const (
	TypeUser       Type = "user"
	TypeRedemption Type = "redemption"
)

// Payload is either a UserPayload or a RedemptionPayload.
type Payload interface {
	Type() Type
	payload()
}

// UserPayload identifies a member so that staff can award points to them.
type UserPayload struct {
	UserID int64  `json:"userId"`
	UTORid string `json:"utorid"`
}

func (UserPayload) Type() Type { return TypeUser }
func (UserPayload) payload()   {}

// RedemptionPayload identifies a pending redemption request.
type RedemptionPayload struct {
	RequestID int64 `json:"requestId"`
	Amount    int64 `json:"amount"`
}

func (RedemptionPayload) Type() Type { return TypeRedemption }
func (RedemptionPayload) payload()   {}

// ForUser builds the payload shown on a member's profile.
func ForUser(id int64, utorid string) UserPayload {
	return UserPayload{UserID: id, UTORid: utorid}
}

// ForRedemption builds the payload shown for a pending redemption.
func ForRedemption(id, amount int64) RedemptionPayload {
	return RedemptionPayload{RequestID: id, Amount: amount}
}
