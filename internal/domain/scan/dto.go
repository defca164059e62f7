package scan

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ScanRequest for POST /scan
type ScanRequest struct {
	Payload string          `json:"payload" validate:"required"`
	Points  json.RawMessage `json:"points,omitempty"`
	Note    string          `json:"note" validate:"max=200"`
}

// PreviewRequest for POST /scan/preview
type PreviewRequest struct {
	Payload string `json:"payload"`
}

// ParsePoints reads the operator-entered amount. It accepts a JSON integer
// or a string of digits, since the value usually comes from a text field.
// An absent or null value is zero.
func ParsePoints(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, ErrInvalidAmount
		}
		text = strings.TrimSpace(text)
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return n, nil
}
