package scan

import "github.com/loyalprogram/loyalty-api/internal/domain/qrcode"

// PreviewResult describes a payload without acting on it.
type PreviewResult struct {
	Recognized bool        `json:"recognized"`
	Type       qrcode.Type `json:"type,omitempty"`
	UserID     int64       `json:"user_id,omitempty"`
	UTORid     string      `json:"utorid,omitempty"`
	RequestID  int64       `json:"request_id,omitempty"`
	Amount     int64       `json:"amount,omitempty"`
}

// Preview decodes text for display while the operator is still entering
// it. Text that does not decode is reported as not recognized.
func Preview(text string) PreviewResult {
	payload, err := qrcode.Decode(text)
	if err != nil {
		return PreviewResult{}
	}
	switch p := payload.(type) {
	case qrcode.UserPayload:
		return PreviewResult{Recognized: true, Type: p.Type(), UserID: p.UserID, UTORid: p.UTORid}
	case qrcode.RedemptionPayload:
		return PreviewResult{Recognized: true, Type: p.Type(), RequestID: p.RequestID, Amount: p.Amount}
	}
	return PreviewResult{}
}
