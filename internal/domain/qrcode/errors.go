package qrcode

import "errors"

// ErrDecode matches every error returned by Decode.
var ErrDecode = errors.New("qr payload not recognized")

// DecodeError describes why a QR text was rejected.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return ErrDecode.Error() + ": " + e.Reason
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func decodeErr(reason string) error {
	return &DecodeError{Reason: reason}
}
