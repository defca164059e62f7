package redemption

// CreateRequest is the body of POST /redemptions.
type CreateRequest struct {
	Amount int64  `json:"amount"`
	Remark string `json:"remark" validate:"max=200"`
}

// QRResponse carries the text to render as a QR code.
type QRResponse struct {
	Payload string `json:"payload"`
}
