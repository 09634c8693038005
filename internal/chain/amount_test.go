package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

func TestParseDecimalAmount_ValidAmounts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		amount   string
		decimals int32
		want     string
	}{
		{"1.5 with 18 decimals", "1.5", 18, "1500000000000000000"},
		{"0.1 with 8 decimals", "0.1", 8, "10000000"},
		{"100 no decimal", "100", 18, "100000000000000000000"},
		{".5 no integer", ".5", 18, "500000000000000000"},
		{"0 value", "0", 18, "0"},
		{"many decimals truncated", "1.123456789012345678901234", 18, "1123456789012345678"},
		{"fewer decimals padded", "1.1", 8, "110000000"},
		{"micro atom", "0.108444", 6, "108444"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDecimalAmount(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDecimalAmount_Invalid(t *testing.T) {
	t.Parallel()
	for _, amount := range []string{"", "-1", "abc", "1.2.3", "  "} {
		amount := amount
		t.Run(amount, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDecimalAmount(amount, 8)
			require.ErrorIs(t, err, coreerr.ErrInvalidAmount)
		})
	}
}

func TestFormatDecimalAmount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		amount   *big.Int
		decimals int32
		want     string
	}{
		{big.NewInt(1500000000000000000), 18, "1.5"},
		{big.NewInt(100000000), 8, "1"},
		{big.NewInt(1), 8, "0.00000001"},
		{big.NewInt(0), 6, "0"},
		{nil, 6, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDecimalAmount(tt.amount, tt.decimals))
	}
}

func TestParseBaseUnits(t *testing.T) {
	t.Parallel()
	v, ok := ParseBaseUnits("70000000000000000")
	require.True(t, ok)
	assert.Equal(t, "70000000000000000", v.String())

	_, ok = ParseBaseUnits("-5")
	assert.False(t, ok)
	_, ok = ParseBaseUnits("1.5")
	assert.False(t, ok)
}
