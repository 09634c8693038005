package evm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

func TestParseGasSpeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected chain.GasSpeed
		wantErr  bool
	}{
		{name: "slow", input: "slow", expected: chain.GasSpeedSlow},
		{name: "medium", input: "medium", expected: chain.GasSpeedMedium},
		{name: "fast", input: "fast", expected: chain.GasSpeedFast},
		{name: "empty string defaults to medium", input: "", expected: chain.GasSpeedMedium},
		{name: "invalid speed", input: "turbo", wantErr: true},
		{name: "invalid speed - uppercase", input: "FAST", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			speed, err := ParseGasSpeed(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, coreerr.ErrInvalidGasSpeed)
				assert.Contains(t, err.Error(), "slow, medium, or fast")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, speed)
		})
	}
}

func TestGasPriceForSpeed(t *testing.T) {
	t.Parallel()
	price := big.NewInt(20_000_000_000)

	assert.Equal(t, "16000000000", GasPriceForSpeed(price, chain.GasSpeedSlow).String())
	assert.Equal(t, "20000000000", GasPriceForSpeed(price, chain.GasSpeedMedium).String())
	assert.Equal(t, "24000000000", GasPriceForSpeed(price, chain.GasSpeedFast).String())

	medium := GasPriceForSpeed(price, chain.GasSpeedMedium)
	medium.SetInt64(1)
	assert.Equal(t, "20000000000", price.String(), "input must not be aliased")
}

func TestApplyGasMultiplier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		estimated  uint64
		multiplier float64
		want       uint64
	}{
		{21000, 1.5, 31500},
		{65000, 1.5, 97500},
		{14000, 1.5, 21000},
		{33333, 1.5, 50000}, // 49999.5 rounds up
		{21000, 0, 31500},   // non-positive falls back to the default
		{21000, 1, 21000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyGasMultiplier(tt.estimated, tt.multiplier))
	}
}

func TestFormatGasPrice(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0 Gwei", FormatGasPrice(nil))
	assert.Equal(t, "20.00 Gwei", FormatGasPrice(big.NewInt(20_000_000_000)))
	assert.Equal(t, "1.50 Gwei", FormatGasPrice(big.NewInt(1_500_000_000)))
}
