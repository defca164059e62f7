package redemption

import (
	"errors"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
)

var (
	ErrNotVerified     = errors.New("member is not verified")
	ErrRequestNotFound = errors.New("redemption request not found")
	ErrInvalidState    = errors.New("redemption request is not pending")
	ErrForbidden       = errors.New("not allowed to act on this request")
	ErrRemarkTooLong   = errors.New("remark exceeds 200 characters")
	ErrInvalidStatus   = errors.New("invalid status filter")
)

// Shared with the ledger so errors.Is matches across both packages.
var (
	ErrInvalidAmount       = ledger.ErrInvalidAmount
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	ErrMemberNotFound      = ledger.ErrMemberNotFound
)
