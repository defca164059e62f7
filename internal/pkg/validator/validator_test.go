package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	UTORid string `json:"utorid" validate:"required,utorid"`
	Role   string `json:"role" validate:"omitempty,role"`
	Amount int64  `json:"amount" validate:"nonzero"`
	Note   string `json:"note" validate:"max=5"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	errs := Validate(sample{UTORid: "AB", Role: "admin", Note: "too long"})

	assert.Contains(t, errs, "utorid")
	assert.Contains(t, errs, "role")
	assert.Contains(t, errs, "amount")
	assert.Contains(t, errs, "note")
}

func TestValidateOK(t *testing.T) {
	assert.Nil(t, Validate(sample{UTORid: "user0001", Role: "cashier", Amount: -5}))
}
