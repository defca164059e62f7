package profile

import (
	"time"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
)

// RegisterRequest for POST /users
type RegisterRequest struct {
	UTORid   string     `json:"utorid" validate:"required,utorid"`
	Name     string     `json:"name" validate:"required,min=1,max=50"`
	Email    string     `json:"email" validate:"required,email,max=255"`
	Password string     `json:"password" validate:"required,min=8,max=128"`
	Role     string     `json:"role" validate:"omitempty,role"`
	Birthday *time.Time `json:"birthday,omitempty"`
}

// UpdateMeRequest for PATCH /users/me
type UpdateMeRequest struct {
	Name     *string    `json:"name" validate:"omitempty,min=1,max=50"`
	Email    *string    `json:"email" validate:"omitempty,email,max=255"`
	Birthday *time.Time `json:"birthday"`
}

// UpdateFlagsRequest for PATCH /users/{id}
type UpdateFlagsRequest struct {
	Verified   *bool   `json:"verified"`
	Suspicious *bool   `json:"suspicious"`
	Role       *string `json:"role" validate:"omitempty,role"`
}

func (r UpdateFlagsRequest) Flags() user.Flags {
	flags := user.Flags{Verified: r.Verified, Suspicious: r.Suspicious}
	if r.Role != nil {
		role := user.Role(*r.Role)
		flags.Role = &role
	}
	return flags
}

// QRResponse carries the member QR payload text.
type QRResponse struct {
	Payload string `json:"payload"`
}
