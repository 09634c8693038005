package utxo

import (
	"math"
	"math/bits"
	"sort"
	"strconv"

	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// SelectParams describes the transaction around the inputs being selected.
type SelectParams struct {
	FeeRate    uint64 // satoshis per virtual byte
	DustLimit  uint64
	Size       SizeModel
	OutputSize uint64 // total size of the non-change outputs
	ChangeSize uint64 // size of the change output, if one is added
	MaxAmount  uint64 // money supply bound; zero means math.MaxInt64
}

// Selection is the result of coin selection.
type Selection struct {
	Inputs    []chain.UTXO
	Fee       uint64
	Change    uint64
	HasChange bool
	VSize     uint64
}

// TotalInput sums the selected inputs.
func (s *Selection) TotalInput() uint64 {
	var total uint64
	for _, u := range s.Inputs {
		total += u.Amount
	}
	return total
}

// SelectCoins picks inputs largest first, so the fewest inputs cover
// target plus fee. Ties are broken by txid and vout, making the result a
// pure function of its arguments. Leftover value above the dust limit
// becomes change; anything at or below it is absorbed into the fee.
//
// Targets and inputs above the money supply bound are rejected, and the
// sums saturate instead of wrapping, so a selection always satisfies
// inputs = target + fee + change.
func SelectCoins(utxos []chain.UTXO, target uint64, p SelectParams) (*Selection, error) {
	maxAmount := p.MaxAmount
	if maxAmount == 0 || maxAmount > math.MaxInt64 {
		maxAmount = math.MaxInt64
	}
	if target > maxAmount {
		return nil, outOfRange("target", target, maxAmount)
	}
	if len(utxos) == 0 {
		return nil, insufficient(target, 0)
	}

	sorted := make([]chain.UTXO, len(utxos))
	copy(sorted, utxos)
	for _, u := range sorted {
		if u.Amount > maxAmount {
			return nil, outOfRange("utxo", u.Amount, maxAmount, "txid", u.TxID, "vout", strconv.FormatUint(uint64(u.Vout), 10))
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		if sorted[i].TxID != sorted[j].TxID {
			return sorted[i].TxID < sorted[j].TxID
		}
		return sorted[i].Vout < sorted[j].Vout
	})

	var total uint64
	for k, u := range sorted {
		total = addSat(total, u.Amount)
		if total > maxAmount {
			// Every spend from here on would carry more than the chain can hold.
			return nil, outOfRange("input total", total, maxAmount)
		}

		size := p.Size.Estimate(k+1, p.OutputSize)
		fee := mulSat(size, p.FeeRate)
		if total < addSat(target, fee) {
			continue
		}

		sel := &Selection{Inputs: sorted[:k+1], Fee: total - target, VSize: size}

		withChange := size + p.ChangeSize
		changeFee := mulSat(withChange, p.FeeRate)
		if total >= addSat(target, changeFee) {
			if leftover := total - target - changeFee; leftover > p.DustLimit {
				sel.Fee = changeFee
				sel.Change = leftover
				sel.HasChange = true
				sel.VSize = withChange
			}
		}
		return sel, nil
	}

	// Report the shortfall against the cheapest possible spend of everything.
	size := p.Size.Estimate(len(sorted), p.OutputSize)
	return nil, insufficient(addSat(target, mulSat(size, p.FeeRate)), total)
}

// addSat adds without wrapping, pinning the result at math.MaxUint64.
func addSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// mulSat multiplies without wrapping, pinning the result at math.MaxUint64.
func mulSat(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// outOfRange reports a value above the money supply bound. extra holds
// additional detail key/value pairs.
func outOfRange(field string, value, limit uint64, extra ...string) error {
	details := map[string]string{
		"field":  field,
		"amount": strconv.FormatUint(value, 10),
		"limit":  strconv.FormatUint(limit, 10),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		details[extra[i]] = extra[i+1]
	}
	return coreerr.WithDetails(
		coreerr.Newf(coreerr.ErrInvalidAmount, "%s of %d satoshis exceeds the %d satoshi limit", field, value, limit),
		details,
	)
}

func insufficient(need, have uint64) error {
	return coreerr.WithDetails(
		coreerr.Newf(coreerr.ErrInsufficientFunds, "need %d satoshis, have %d", need, have),
		map[string]string{
			"required":  strconv.FormatUint(need, 10),
			"available": strconv.FormatUint(have, 10),
		},
	)
}
