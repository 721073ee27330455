package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullDecimalValueRoundTrip(t *testing.T) {
	d := NewNullDecimal(decimal.NewFromFloat(12.345), true)
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "12.345", v)
}

func TestNullDecimalValueWhenInvalid(t *testing.T) {
	var d NullDecimal
	v, err := d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNullDecimalScanNil(t *testing.T) {
	d := NewNullDecimal(decimal.NewFromInt(5), true)
	require.NoError(t, d.Scan(nil))
	assert.False(t, d.Valid)
}

func TestNullDecimalScanVariants(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"bytes", []byte("42.5"), "42.5"},
		{"string", "42.5", "42.5"},
		{"float64", float64(42.5), "42.5"},
		{"int64", int64(42), "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d NullDecimal
			require.NoError(t, d.Scan(tc.input))
			assert.True(t, d.Valid)
			assert.Equal(t, tc.want, d.Decimal.String())
		})
	}
}

func TestNullDecimalScanUnsupportedType(t *testing.T) {
	var d NullDecimal
	err := d.Scan(true)
	assert.Error(t, err)
}
