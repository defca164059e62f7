package qrcode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type userWire struct {
	Type   Type   `json:"type"`
	UserID int64  `json:"userId"`
	UTORid string `json:"utorid"`
}

type redemptionWire struct {
	Type      Type  `json:"type"`
	RequestID int64 `json:"requestId"`
	Amount    int64 `json:"amount"`
}

// Encode renders p as QR text. Field order is fixed with "type" first.
func Encode(p Payload) string {
	var v interface{}
	switch p := p.(type) {
	case UserPayload:
		v = userWire{Type: TypeUser, UserID: p.UserID, UTORid: p.UTORid}
	case *UserPayload:
		v = userWire{Type: TypeUser, UserID: p.UserID, UTORid: p.UTORid}
	case RedemptionPayload:
		v = redemptionWire{Type: TypeRedemption, RequestID: p.RequestID, Amount: p.Amount}
	case *RedemptionPayload:
		v = redemptionWire{Type: TypeRedemption, RequestID: p.RequestID, Amount: p.Amount}
	default:
		return ""
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding structs of ints and strings cannot fail.
	_ = enc.Encode(v)
	return strings.TrimSuffix(buf.String(), "\n")
}

// Decode parses QR text. Any failure is a *DecodeError matching ErrDecode.
func Decode(text string) (Payload, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, decodeErr("empty payload")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, decodeErr("not a JSON object")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, decodeErr("trailing data after JSON object")
	}
	if fields == nil {
		return nil, decodeErr("not a JSON object")
	}

	rawType, ok := fields["type"]
	if !ok {
		return nil, decodeErr("missing type")
	}
	typ, ok := rawType.(string)
	if !ok {
		return nil, decodeErr("type must be a string")
	}

	switch Type(typ) {
	case TypeUser:
		id, err := positiveInt(fields, "userId")
		if err != nil {
			return nil, err
		}
		utorid, ok := fields["utorid"].(string)
		if !ok || strings.TrimSpace(utorid) == "" {
			return nil, decodeErr("utorid must be a non-empty string")
		}
		return UserPayload{UserID: id, UTORid: utorid}, nil

	case TypeRedemption:
		id, err := positiveInt(fields, "requestId")
		if err != nil {
			return nil, err
		}
		amount, err := positiveInt(fields, "amount")
		if err != nil {
			return nil, err
		}
		return RedemptionPayload{RequestID: id, Amount: amount}, nil
	}

	return nil, decodeErr(fmt.Sprintf("unknown type %q", typ))
}

func positiveInt(fields map[string]interface{}, key string) (int64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, decodeErr("missing " + key)
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, decodeErr(key + " must be a number")
	}
	n, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return 0, decodeErr(key + " must be an integer")
	}
	if n <= 0 {
		return 0, decodeErr(key + " must be positive")
	}
	return n, nil
}
