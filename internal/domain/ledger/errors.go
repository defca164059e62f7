package ledger

import "errors"

var (
	ErrInvalidAmount       = errors.New("amount must be a positive integer")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrMemberNotFound      = errors.New("member not found")
	ErrForbidden           = errors.New("not allowed for this role")
	ErrNoteTooLong         = errors.New("note exceeds 200 characters")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrInternal            = errors.New("internal ledger error")
)
