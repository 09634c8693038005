package utxo

const (
	// P2PKHInputSize is the size of a P2PKH input in bytes.
	P2PKHInputSize = 148

	// P2WPKHInputVSize is the virtual size of a P2WPKH input.
	P2WPKHInputVSize = 68

	// P2WPKHOutputSize is the size of a P2WPKH output in bytes.
	P2WPKHOutputSize = 31

	// TxOverhead is the fixed overhead for a transaction in bytes.
	TxOverhead = 10

	// SegwitTxOverhead adds the marker and flag (rounded up to whole vbytes).
	SegwitTxOverhead = 11

	// outputFixedSize is the value (8) plus a one byte script length.
	outputFixedSize = 9
)

// SizeModel estimates virtual sizes for one kind of spend.
type SizeModel struct {
	Overhead  uint64
	InputSize uint64
}

// SizeModelFor returns the size model for segwit or legacy spends.
func SizeModelFor(segwit bool) SizeModel {
	if segwit {
		return SizeModel{Overhead: SegwitTxOverhead, InputSize: P2WPKHInputVSize}
	}
	return SizeModel{Overhead: TxOverhead, InputSize: P2PKHInputSize}
}

// OutputSize returns the serialized size of an output with the given script.
func OutputSize(script []byte) uint64 {
	return outputFixedSize + uint64(len(script))
}

// Estimate returns the virtual size of a spend of n inputs whose non-change
// outputs together take outputSize bytes.
func (m SizeModel) Estimate(n int, outputSize uint64) uint64 {
	return m.Overhead + uint64(n)*m.InputSize + outputSize //nolint:gosec // n is a slice length
}
