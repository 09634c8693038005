package utxo

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

func txid(n int) string {
	return fmt.Sprintf("%064x", n)
}

func segwitParams(rate uint64) SelectParams {
	return SelectParams{
		FeeRate:    rate,
		DustLimit:  546,
		Size:       SizeModelFor(true),
		OutputSize: P2WPKHOutputSize,
		ChangeSize: P2WPKHOutputSize,
	}
}

func TestSelectCoins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		amounts    []uint64
		target     uint64
		wantInputs []uint64
		wantFee    uint64
		wantChange uint64
		wantVSize  uint64
	}{
		{
			name:    "single input with change",
			amounts: []uint64{30000, 50000, 20000}, target: 40000,
			wantInputs: []uint64{50000}, wantFee: 1410, wantChange: 8590, wantVSize: 141,
		},
		{
			name:    "leftover below dust is absorbed",
			amounts: []uint64{41500}, target: 40000,
			wantInputs: []uint64{41500}, wantFee: 1500, wantChange: 0, wantVSize: 110,
		},
		{
			name:    "change output not affordable",
			amounts: []uint64{41200}, target: 40000,
			wantInputs: []uint64{41200}, wantFee: 1200, wantChange: 0, wantVSize: 110,
		},
		{
			name:    "two inputs largest first",
			amounts: []uint64{10000, 20000, 15000}, target: 30000,
			wantInputs: []uint64{20000, 15000}, wantFee: 2090, wantChange: 2910, wantVSize: 209,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			utxos := make([]chain.UTXO, 0, len(tt.amounts))
			for i, a := range tt.amounts {
				utxos = append(utxos, chain.UTXO{TxID: txid(i + 1), Amount: a})
			}

			sel, err := SelectCoins(utxos, tt.target, segwitParams(10))
			require.NoError(t, err)

			got := make([]uint64, 0, len(sel.Inputs))
			for _, in := range sel.Inputs {
				got = append(got, in.Amount)
			}
			assert.Equal(t, tt.wantInputs, got)
			assert.Equal(t, tt.wantFee, sel.Fee)
			assert.Equal(t, tt.wantChange, sel.Change)
			assert.Equal(t, tt.wantChange > 0, sel.HasChange)
			assert.Equal(t, tt.wantVSize, sel.VSize)
			assert.Equal(t, sel.TotalInput(), tt.target+sel.Fee+sel.Change)
		})
	}
}

func TestSelectCoins_Insufficient(t *testing.T) {
	t.Parallel()

	t.Run("not enough value", func(t *testing.T) {
		t.Parallel()
		utxos := []chain.UTXO{{TxID: txid(1), Amount: 1000}, {TxID: txid(2), Amount: 2000}}
		_, err := SelectCoins(utxos, 5000, segwitParams(10))
		require.ErrorIs(t, err, coreerr.ErrInsufficientFunds)

		available, ok := coreerr.DetailOf(err, "available")
		require.True(t, ok)
		assert.Equal(t, "3000", available)
	})

	t.Run("value covers target but not fee", func(t *testing.T) {
		t.Parallel()
		utxos := []chain.UTXO{{TxID: txid(1), Amount: 40500}}
		_, err := SelectCoins(utxos, 40000, segwitParams(10))
		require.ErrorIs(t, err, coreerr.ErrInsufficientFunds)
	})

	t.Run("no utxos", func(t *testing.T) {
		t.Parallel()
		_, err := SelectCoins(nil, 1, segwitParams(1))
		require.ErrorIs(t, err, coreerr.ErrInsufficientFunds)
	})
}

func TestSelectCoins_DeterministicTieBreak(t *testing.T) {
	t.Parallel()
	utxos := []chain.UTXO{
		{TxID: txid(0xbb), Vout: 0, Amount: 5000},
		{TxID: txid(0xaa), Vout: 1, Amount: 5000},
		{TxID: txid(0xaa), Vout: 0, Amount: 5000},
	}

	first, err := SelectCoins(utxos, 4000, segwitParams(1))
	require.NoError(t, err)
	require.Len(t, first.Inputs, 1)
	assert.Equal(t, txid(0xaa), first.Inputs[0].TxID)
	assert.Equal(t, uint32(0), first.Inputs[0].Vout)

	// Input order must not change the result.
	reversed := []chain.UTXO{utxos[2], utxos[1], utxos[0]}
	second, err := SelectCoins(reversed, 4000, segwitParams(1))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The caller's slice is left untouched.
	assert.Equal(t, txid(0xbb), utxos[0].TxID)
}

func TestSelectCoins_FeeInvariants(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(8)
		utxos := make([]chain.UTXO, n)
		for j := range utxos {
			utxos[j] = chain.UTXO{TxID: txid(j), Vout: uint32(j), Amount: 1000 + uint64(rng.Int63n(100000))} //nolint:gosec // small index
		}
		target := 546 + uint64(rng.Int63n(200000))
		rate := 1 + uint64(rng.Int63n(50))

		sel, err := SelectCoins(utxos, target, segwitParams(rate))
		if err != nil {
			require.ErrorIs(t, err, coreerr.ErrInsufficientFunds)
			continue
		}
		total := sel.TotalInput()
		assert.GreaterOrEqual(t, total, target+sel.Fee, "inputs must cover outputs and fee")
		assert.GreaterOrEqual(t, sel.Fee, sel.VSize*rate, "fee must cover the size at the requested rate")
		assert.Equal(t, total, target+sel.Fee+sel.Change)
		if sel.HasChange {
			assert.Greater(t, sel.Change, uint64(546))
		}
	}
}

func TestSizeModel_Estimate(t *testing.T) {
	t.Parallel()
	// 10 overhead + 148 input + two 34 byte outputs
	assert.Equal(t, uint64(226), SizeModelFor(false).Estimate(1, 2*34))
	// 11 overhead + 68 input + 31 output
	assert.Equal(t, uint64(110), SizeModelFor(true).Estimate(1, P2WPKHOutputSize))
	assert.Equal(t, uint64(31), OutputSize(make([]byte, 22)))
	assert.Equal(t, uint64(34), OutputSize(make([]byte, 25)))
}

func TestSelectCoins_AmountBounds(t *testing.T) {
	t.Parallel()
	const maxSatoshi = 21_000_000 * 100_000_000

	bounded := func(rate uint64) SelectParams {
		p := segwitParams(rate)
		p.MaxAmount = maxSatoshi
		return p
	}

	tests := []struct {
		name    string
		amounts []uint64
		target  uint64
		params  SelectParams
		want    error
	}{
		{"target near uint64 max", []uint64{5000}, math.MaxUint64 - 100, segwitParams(1), coreerr.ErrInvalidAmount},
		{"target above money supply", []uint64{5000}, maxSatoshi + 1, bounded(1), coreerr.ErrInvalidAmount},
		{"utxo above money supply", []uint64{maxSatoshi + 1}, 1000, bounded(1), coreerr.ErrInvalidAmount},
		{"utxo at uint64 max", []uint64{math.MaxUint64}, 1000, segwitParams(1), coreerr.ErrInvalidAmount},
		{"input total above money supply", []uint64{1_000_000_000_000_000, 1_000_000_000_000_000, 1_000_000_000_000_000}, 2_050_000_000_000_000, bounded(1), coreerr.ErrInvalidAmount},
		{"fee rate overflows", []uint64{50000}, 1000, segwitParams(math.MaxUint64), coreerr.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			utxos := make([]chain.UTXO, len(tt.amounts))
			for i, amt := range tt.amounts {
				utxos[i] = chain.UTXO{TxID: txid(i + 1), Amount: amt}
			}
			_, err := SelectCoins(utxos, tt.target, tt.params)
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("whole supply in one output", func(t *testing.T) {
		t.Parallel()
		utxos := []chain.UTXO{{TxID: txid(1), Amount: maxSatoshi}}
		sel, err := SelectCoins(utxos, maxSatoshi-10000, bounded(10))
		require.NoError(t, err)
		assert.Equal(t, uint64(maxSatoshi), sel.TotalInput())
		assert.Equal(t, sel.TotalInput(), maxSatoshi-10000+sel.Fee+sel.Change)
		assert.True(t, sel.HasChange)
	})
}
