package evm

import (
	"encoding/json"
	"math/big"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// Raw status values reported by indexers.
const (
	RawStatusPending = -1
	RawStatusFailed  = 0
	RawStatusSuccess = 1
)

// RawTransaction is an account-model indexer record. Values are integer
// strings in wei or token base units.
type RawTransaction struct {
	TxID           string             `json:"txid"`
	BlockHash      string             `json:"blockHash"`
	BlockHeight    int64              `json:"blockHeight"`
	Timestamp      int64              `json:"timestamp"`
	Confirmations  uint64             `json:"confirmations"`
	From           string             `json:"from"`
	To             string             `json:"to"`
	Value          string             `json:"value"`
	InputData      string             `json:"inputData"`
	Fee            string             `json:"fee"`
	GasUsed        string             `json:"gasUsed"`
	GasPrice       string             `json:"gasPrice"`
	Status         *int               `json:"status"`
	TokenTransfers []RawTokenTransfer `json:"tokenTransfers"`
	InternalTxs    []RawInternalTx    `json:"internalTxs"`
}

// RawTokenTransfer is a token movement emitted by the transaction.
type RawTokenTransfer struct {
	Contract string `json:"contract"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
}

// RawInternalTx is a value movement made by a contract during execution.
type RawInternalTx struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

// Parser normalizes account-model indexer records.
type Parser struct {
	network chain.Network
	logger  chain.LogWriter
}

// NewParser creates a parser for an EVM network.
func NewParser(n chain.Network, logger chain.LogWriter) (*Parser, error) {
	if n.Family != chain.FamilyAccount {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "%s is not an account chain", n.ChainID)
	}
	return &Parser{network: n, logger: chain.LoggerOrNop(logger)}, nil
}

// ChainID implements chain.Identifier.
func (p *Parser) ChainID() caip.ChainID { return p.network.ChainID }

// Family implements chain.Identifier.
func (p *Parser) Family() chain.Family { return chain.FamilyAccount }

// ParseRaw decodes a JSON record and normalizes it.
func (p *Parser) ParseRaw(data []byte, watched string) (*chain.NormalizedTransaction, error) {
	var raw RawTransaction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidFormat, err)
	}
	return p.Parse(&raw, watched), nil
}

// Parse normalizes a record relative to the watched address; an empty
// watched address keeps every movement.
//
// Transfers are emitted in record order: the transaction value, attached
// token transfers, a token transfer derived from known call data when no
// attached transfer covers it, then internal transactions. Failed
// transactions keep only their fee.
func (p *Parser) Parse(raw *RawTransaction, watched string) *chain.NormalizedTransaction {
	out := chain.NewNormalizedTransaction(p.network.ChainID, raw.TxID)
	out.BlockHash = raw.BlockHash
	out.BlockHeight = raw.BlockHeight
	out.Timestamp = raw.Timestamp
	out.Confirmations = raw.Confirmations
	out.Status = p.status(raw)

	if watched == "" || sameAddress(raw.From, watched) {
		if fee := p.fee(raw); fee != nil {
			out.Fee = &chain.Fee{AssetID: p.network.NativeAsset, Value: fee.String()}
		}
	}

	call := DecodeHexCall(raw.InputData)
	if call.Selector != "" {
		out.Call = &chain.CallInfo{
			Method:   call.Kind,
			Selector: call.Selector,
			Contract: raw.To,
			Memo:     call.Memo,
		}
		if !call.IsRecognized() {
			p.logger.Debug("tx %s: unrecognized selector %s on %s", raw.TxID, call.Selector, raw.To)
		}
	}

	if out.Status == chain.StatusFailed {
		return out
	}

	touches := func(from, to string) bool {
		return watched == "" || sameAddress(from, watched) || sameAddress(to, watched)
	}

	if value := p.value(raw.Value, raw.TxID); value.Sign() > 0 && touches(raw.From, raw.To) {
		out.Transfers = append(out.Transfers, chain.Transfer{
			Type:    chain.TransferNative,
			From:    raw.From,
			To:      raw.To,
			AssetID: p.network.NativeAsset,
			Value:   value.String(),
		})
	}

	for _, tt := range raw.TokenTransfers {
		if !touches(tt.From, tt.To) {
			continue
		}
		if tr, ok := p.tokenTransfer(raw.TxID, tt.Contract, tt.From, tt.To, p.value(tt.Value, raw.TxID)); ok {
			out.Transfers = append(out.Transfers, tr)
		}
	}

	if derived, ok := p.derivedTokenTransfer(raw, call); ok && touches(derived.From, derived.To) {
		out.Transfers = append(out.Transfers, derived)
	}

	for _, itx := range raw.InternalTxs {
		value := p.value(itx.Value, raw.TxID)
		if value.Sign() == 0 || !touches(itx.From, itx.To) {
			continue
		}
		out.Transfers = append(out.Transfers, chain.Transfer{
			Type:     chain.TransferInternal,
			From:     itx.From,
			To:       itx.To,
			AssetID:  p.network.NativeAsset,
			Value:    value.String(),
			Contract: raw.To,
		})
	}

	return out
}

// derivedTokenTransfer reconstructs the token movement of a known call when
// the record carries no attached transfer for the same token contract.
func (p *Parser) derivedTokenTransfer(raw *RawTransaction, call KnownCall) (chain.Transfer, bool) {
	var contract, to string
	switch call.Kind {
	case chain.CallMethodTransfer:
		contract, to = raw.To, call.To.Hex()
	case chain.CallMethodDeposit, chain.CallMethodDepositWithExpiry:
		if call.IsNativeDeposit() {
			return chain.Transfer{}, false
		}
		contract, to = call.Asset.Hex(), call.Vault.Hex()
	default:
		return chain.Transfer{}, false
	}
	if call.Amount == nil || call.Amount.Sign() == 0 {
		return chain.Transfer{}, false
	}
	for _, tt := range raw.TokenTransfers {
		if sameAddress(tt.Contract, contract) {
			return chain.Transfer{}, false
		}
	}
	return p.tokenTransfer(raw.TxID, contract, raw.From, to, call.Amount)
}

func (p *Parser) tokenTransfer(txid, contract, from, to string, value *big.Int) (chain.Transfer, bool) {
	asset, err := caip.NewAssetID(p.network.ChainID, p.tokenNamespace(), contract)
	if err != nil {
		p.logger.Debug("tx %s: skipping token transfer with contract %q: %v", txid, contract, err)
		return chain.Transfer{}, false
	}
	return chain.Transfer{
		Type:     chain.TransferToken,
		From:     from,
		To:       to,
		AssetID:  asset,
		Value:    value.String(),
		Contract: asset.AssetReference,
	}, true
}

func (p *Parser) tokenNamespace() string {
	if p.network.ChainID == caip.BNBSmartChain {
		return caip.AssetNamespaceBEP20
	}
	return caip.AssetNamespaceERC20
}

func (p *Parser) status(raw *RawTransaction) chain.Status {
	if raw.Status == nil {
		return chain.StatusFromConfirmations(raw.Confirmations)
	}
	switch *raw.Status {
	case RawStatusSuccess:
		return chain.StatusConfirmed
	case RawStatusFailed:
		return chain.StatusFailed
	case RawStatusPending:
		return chain.StatusPending
	default:
		return chain.StatusUnknown
	}
}

// fee prefers the reported fee, else gas used times gas price.
func (p *Parser) fee(raw *RawTransaction) *big.Int {
	if fee, ok := chain.ParseBaseUnits(raw.Fee); ok {
		return fee
	}
	used, okUsed := chain.ParseBaseUnits(raw.GasUsed)
	price, okPrice := chain.ParseBaseUnits(raw.GasPrice)
	if !okUsed || !okPrice {
		return nil
	}
	return used.Mul(used, price)
}

func (p *Parser) value(s, txid string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	v, ok := chain.ParseBaseUnits(s)
	if !ok {
		p.logger.Debug("tx %s: unparseable value %q treated as zero", txid, s)
		return new(big.Int)
	}
	return v
}

// Compile-time interface check
var _ chain.Parser = (*Parser)(nil)
