package evm

import (
	"fmt"
	"math"
	"math/big"

	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const (
	// GasLimitNativeTransfer is the gas limit for a plain value transfer.
	GasLimitNativeTransfer uint64 = 21000
	// GasLimitTokenTransfer is the typical gas limit for ERC-20 transfers.
	GasLimitTokenTransfer uint64 = 65000
	// GasLimitRouterDeposit is the typical gas limit for router deposits.
	GasLimitRouterDeposit uint64 = 120000

	// DefaultGasMultiplier is the safety margin applied to estimated gas.
	DefaultGasMultiplier = 1.5

	// slowPercent reduces gas price by 20% for slow transactions.
	slowPercent = 80
	// fastPercent increases gas price by 20% for fast transactions.
	fastPercent = 120
)

// ParseGasSpeed parses a string into a GasSpeed. Empty selects medium.
func ParseGasSpeed(s string) (chain.GasSpeed, error) {
	switch s {
	case "slow":
		return chain.GasSpeedSlow, nil
	case "", "medium":
		return chain.GasSpeedMedium, nil
	case "fast":
		return chain.GasSpeedFast, nil
	default:
		return "", coreerr.WithDetails(coreerr.ErrInvalidGasSpeed, map[string]string{
			"speed":   s,
			"allowed": "slow, medium, or fast",
		})
	}
}

// GasPriceForSpeed scales a collaborator supplied gas price by speed.
func GasPriceForSpeed(price *big.Int, speed chain.GasSpeed) *big.Int {
	switch speed {
	case chain.GasSpeedSlow:
		return scalePercent(price, slowPercent)
	case chain.GasSpeedFast:
		return scalePercent(price, fastPercent)
	default:
		return new(big.Int).Set(price)
	}
}

// ApplyGasMultiplier scales estimated gas by the multiplier, rounded to the
// nearest integer.
func ApplyGasMultiplier(estimated uint64, multiplier float64) uint64 {
	if multiplier <= 0 {
		multiplier = DefaultGasMultiplier
	}
	return uint64(math.Round(float64(estimated) * multiplier))
}

// FormatGasPrice formats a gas price in wei to a human-readable Gwei string.
func FormatGasPrice(weiPrice *big.Int) string {
	if weiPrice == nil {
		return "0 Gwei"
	}

	gwei := new(big.Float).SetInt(weiPrice)
	gwei.Quo(gwei, new(big.Float).SetInt64(1_000_000_000))
	return fmt.Sprintf("%.2f Gwei", gwei)
}

// scalePercent returns n * percent / 100, truncated.
func scalePercent(n *big.Int, percent int64) *big.Int {
	result := new(big.Int).Mul(n, big.NewInt(percent))
	return result.Quo(result, big.NewInt(100))
}
