package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type amount struct {
	Quantity decimal.Decimal  `validate:"required,gt=0"`
	Limit    *decimal.Decimal `validate:"omitempty,gt=0"`
}

func TestDecimalValidation(t *testing.T) {
	tiny := decimal.RequireFromString("1e-400")
	negative := decimal.NewFromInt(-2)

	tests := []struct {
		name  string
		in    amount
		valid bool
	}{
		{name: "positive", in: amount{Quantity: decimal.NewFromInt(3)}, valid: true},
		{name: "below float64 range", in: amount{Quantity: tiny, Limit: &tiny}, valid: true},
		{name: "beyond float64 range", in: amount{Quantity: decimal.RequireFromString("1e400")}, valid: true},
		{name: "zero quantity", in: amount{Quantity: decimal.Zero}, valid: false},
		{name: "negative quantity", in: amount{Quantity: negative}, valid: false},
		{name: "negative limit", in: amount{Quantity: decimal.NewFromInt(1), Limit: &negative}, valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := GetValidator().Struct(tc.in)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
