package utxo

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// DefaultFeeRate is used when a request carries no fee rate, in sat/vbyte.
const DefaultFeeRate uint64 = 10

// Adapter builds unsigned transactions for one UTXO network.
type Adapter struct {
	network        chain.Network
	codec          Codec
	logger         chain.LogWriter
	defaultFeeRate uint64
	dustLimit      uint64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l chain.LogWriter) Option {
	return func(a *Adapter) { a.logger = chain.LoggerOrNop(l) }
}

// WithDefaultFeeRate sets the fee rate used when a request omits one.
func WithDefaultFeeRate(rate uint64) Option {
	return func(a *Adapter) {
		if rate > 0 {
			a.defaultFeeRate = rate
		}
	}
}

// WithDustLimit overrides the network dust limit.
func WithDustLimit(limit uint64) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.dustLimit = limit
		}
	}
}

// NewAdapter creates an adapter for a UTXO network.
func NewAdapter(n chain.Network, opts ...Option) (*Adapter, error) {
	if n.Family != chain.FamilyUTXO {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "%s is not a UTXO chain", n.ChainID)
	}
	codec, err := CodecFor(n.ChainID)
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		network:        n,
		codec:          codec,
		logger:         chain.LoggerOrNop(nil),
		defaultFeeRate: DefaultFeeRate,
		dustLimit:      n.DustLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ChainID implements chain.Identifier.
func (a *Adapter) ChainID() caip.ChainID { return a.network.ChainID }

// Family implements chain.Identifier.
func (a *Adapter) Family() chain.Family { return chain.FamilyUTXO }

// DustLimit returns the effective dust limit in satoshis.
func (a *Adapter) DustLimit() uint64 { return a.dustLimit }

// ValidateAddress checks if an address is valid for this network.
func (a *Adapter) ValidateAddress(address string) error {
	if address == "" {
		return coreerr.ErrInvalidAddress
	}
	if _, err := a.codec.Decode(address); err != nil {
		return coreerr.WithDetails(
			coreerr.WithCause(coreerr.ErrInvalidAddress, err),
			map[string]string{"address": address, "chain": a.network.Symbol},
		)
	}
	return nil
}

// AddressFromPublicKey encodes a key as P2WPKH on segwit networks, else P2PKH.
func (a *Adapter) AddressFromPublicKey(pub *btcec.PublicKey) (string, error) {
	addr, err := a.codec.FromPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), a.network.SegWit)
	if err != nil {
		return "", fmt.Errorf("encoding %s address: %w", a.network.Symbol, err)
	}
	return addr.String(), nil
}

// EstimateFee runs coin selection and reports the fee it would pay.
func (a *Adapter) EstimateFee(req *chain.BuildRequest) (*chain.FeeEstimate, error) {
	p, err := a.plan(req)
	if err != nil {
		return nil, err
	}
	return &chain.FeeEstimate{
		Asset:   a.network.NativeAsset,
		Amount:  chain.AmountToBigInt(p.selection.Fee),
		FeeRate: p.feeRate,
		VSize:   p.selection.VSize,
	}, nil
}

// BuildUnsignedTransaction selects inputs and assembles the unsigned transaction.
func (a *Adapter) BuildUnsignedTransaction(req *chain.BuildRequest) (chain.UnsignedTransaction, error) {
	p, err := a.plan(req)
	if err != nil {
		return nil, err
	}

	msgTx := wire.NewMsgTx(wire.TxVersion)
	inputs := make([]chain.TxInput, 0, len(p.selection.Inputs))
	for _, u := range p.selection.Inputs {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, coreerr.WithDetails(
				coreerr.WithCause(coreerr.ErrInvalidInput, err),
				map[string]string{"txid": u.TxID},
			)
		}
		msgTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, u.Vout), nil, nil))
		inputs = append(inputs, chain.TxInput{
			TxID:         u.TxID,
			Vout:         u.Vout,
			Value:        u.Amount,
			Address:      u.Address,
			ScriptPubKey: u.ScriptPubKey,
		})
	}

	for _, out := range p.outputs {
		msgTx.AddTxOut(wire.NewTxOut(int64(out.Value), out.Script)) //nolint:gosec // bounded by the money supply
	}

	tx := &chain.UTXOTransaction{
		ChainID: a.network.ChainID,
		Inputs:  inputs,
		Outputs: p.outputs,
		Fee:     p.selection.Fee,
		FeeRate: p.feeRate,
		VSize:   p.selection.VSize,
	}
	if p.selection.HasChange {
		tx.Change = &chain.TxOutput{
			Address: p.change.String(),
			Value:   p.selection.Change,
			Script:  p.changeScript,
		}
		msgTx.AddTxOut(wire.NewTxOut(int64(p.selection.Change), p.changeScript)) //nolint:gosec // bounded by the money supply
	}

	var buf bytes.Buffer
	if err := msgTx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serializing transaction: %w", err)
	}
	tx.Raw = buf.Bytes()

	a.logger.Debug("built %s tx: %d inputs, %d outputs, fee %d sat (%d sat/vB), change %d",
		a.network.Symbol, len(inputs), len(p.outputs), tx.Fee, tx.FeeRate, p.selection.Change)
	return tx, nil
}

type plan struct {
	feeRate      uint64
	outputs      []chain.TxOutput
	change       Address
	changeScript []byte
	selection    *Selection
}

//nolint:gocognit,gocyclo // request validation is a flat sequence of checks
func (a *Adapter) plan(req *chain.BuildRequest) (*plan, error) {
	if err := req.ValidateCommon(); err != nil {
		return nil, err
	}
	params := req.UTXO
	if params == nil {
		return nil, chain.MissingParams(chain.FamilyUTXO)
	}
	if asset := req.AssetOr(a.network.NativeAsset); asset != a.network.NativeAsset {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "asset %s cannot be sent on %s", asset, a.network.ChainID)
	}
	maxAmount := a.codec.MaxAmount()
	if !req.Amount.IsUint64() || req.Amount.Uint64() > maxAmount {
		return nil, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidAmount, "amount exceeds the %s money supply", a.network.Symbol),
			map[string]string{"amount": req.Amount.String(), "limit": strconv.FormatUint(maxAmount, 10)},
		)
	}

	feeRate := params.FeeRate
	if feeRate == 0 {
		feeRate = a.defaultFeeRate
	}

	recipients := append([]chain.Output{{Address: req.To, Value: req.Amount.Uint64()}}, params.Outputs...)
	p := &plan{feeRate: feeRate, outputs: make([]chain.TxOutput, 0, len(recipients)+1)}

	var target, outputSize uint64
	for _, r := range recipients {
		out, err := a.recipientOutput(r)
		if err != nil {
			return nil, err
		}
		// Each value is at most maxAmount, so the sum cannot wrap before the check.
		target += r.Value
		if target > maxAmount {
			return nil, coreerr.WithDetails(
				coreerr.Newf(coreerr.ErrInvalidAmount, "outputs exceed the %s money supply", a.network.Symbol),
				map[string]string{"total": strconv.FormatUint(target, 10), "limit": strconv.FormatUint(maxAmount, 10)},
			)
		}
		outputSize += OutputSize(out.Script)
		p.outputs = append(p.outputs, out)
	}

	if req.Memo != "" {
		script, err := txscript.NullDataScript([]byte(req.Memo))
		if err != nil {
			return nil, coreerr.WithDetails(
				coreerr.WithCause(coreerr.ErrInvalidInput, err),
				map[string]string{"memo_bytes": fmt.Sprint(len(req.Memo))},
			)
		}
		p.outputs = append(p.outputs, chain.TxOutput{Script: script, Data: req.Memo})
		outputSize += OutputSize(script)
	}

	changeAddress := params.ChangeAddress
	if changeAddress == "" {
		changeAddress = req.From
	}
	if changeAddress == "" {
		return nil, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrMissingParam, "change address or from is required"),
			map[string]string{"field": "change_address"},
		)
	}
	change, err := a.codec.Decode(changeAddress)
	if err != nil {
		return nil, coreerr.WithDetails(coreerr.WithCause(coreerr.ErrInvalidAddress, err), map[string]string{"address": changeAddress})
	}
	changeScript, err := change.PayToAddrScript()
	if err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidAddress, err)
	}
	p.change, p.changeScript = change, changeScript

	sel, err := SelectCoins(params.UTXOs, target, SelectParams{
		FeeRate:    feeRate,
		DustLimit:  a.dustLimit,
		Size:       SizeModelFor(a.network.SegWit),
		OutputSize: outputSize,
		ChangeSize: OutputSize(changeScript),
		MaxAmount:  maxAmount,
	})
	if err != nil {
		return nil, err
	}
	p.selection = sel
	return p, nil
}

func (a *Adapter) recipientOutput(r chain.Output) (chain.TxOutput, error) {
	addr, err := a.codec.Decode(r.Address)
	if err != nil {
		return chain.TxOutput{}, coreerr.WithDetails(
			coreerr.WithCause(coreerr.ErrInvalidAddress, err),
			map[string]string{"address": r.Address},
		)
	}
	if r.Value > a.codec.MaxAmount() {
		return chain.TxOutput{}, coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{
			"address": r.Address,
			"amount":  strconv.FormatUint(r.Value, 10),
			"limit":   strconv.FormatUint(a.codec.MaxAmount(), 10),
		})
	}
	if r.Value < a.dustLimit {
		return chain.TxOutput{}, coreerr.WithDetails(coreerr.ErrDustOutput, map[string]string{
			"amount": fmt.Sprint(r.Value),
			"dust":   fmt.Sprint(a.dustLimit),
		})
	}
	script, err := addr.PayToAddrScript()
	if err != nil {
		return chain.TxOutput{}, coreerr.WithCause(coreerr.ErrInvalidAddress, err)
	}
	return chain.TxOutput{Address: addr.String(), Value: r.Value, Script: script}, nil
}

// Compile-time interface check
var _ chain.Adapter = (*Adapter)(nil)
