package oee_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iota-uz/mes/modules/mes/domain/oee"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"negative becomes zero", "-0.5", "0"},
		{"zero stays zero", "0", "0"},
		{"in range unchanged", "0.684", "0.684"},
		{"above one caps at one", "1.25", "1"},
		{"one stays one", "1", "1"},
		{"rounds to scale", "0.1234567", "0.123457"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, err := decimal.NewFromString(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, oee.Clamp(in).String())
		})
	}
}
