package utxo

import (
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// RawTransaction is a blockbook-style indexer record. Values are integer
// strings in satoshis.
type RawTransaction struct {
	TxID          string      `json:"txid"`
	BlockHash     string      `json:"blockHash"`
	BlockHeight   int64       `json:"blockHeight"`
	BlockTime     int64       `json:"blockTime"`
	Confirmations uint64      `json:"confirmations"`
	Fees          string      `json:"fees"`
	Vin           []RawInput  `json:"vin"`
	Vout          []RawOutput `json:"vout"`
}

// RawInput spends a previous output.
type RawInput struct {
	TxID      string   `json:"txid"`
	Vout      uint32   `json:"vout"`
	Value     string   `json:"value"`
	Addresses []string `json:"addresses"`
}

// RawOutput is a created output; Hex is the scriptPubKey.
type RawOutput struct {
	N         uint32   `json:"n"`
	Value     string   `json:"value"`
	Addresses []string `json:"addresses"`
	Hex       string   `json:"hex"`
}

// Parser normalizes UTXO indexer records.
type Parser struct {
	network chain.Network
	codec   Codec
	logger  chain.LogWriter
}

// NewParser creates a parser for a UTXO network.
func NewParser(n chain.Network, logger chain.LogWriter) (*Parser, error) {
	codec, err := CodecFor(n.ChainID)
	if err != nil {
		return nil, err
	}
	return &Parser{network: n, codec: codec, logger: chain.LoggerOrNop(logger)}, nil
}

// ChainID implements chain.Identifier.
func (p *Parser) ChainID() caip.ChainID { return p.network.ChainID }

// Family implements chain.Identifier.
func (p *Parser) Family() chain.Family { return chain.FamilyUTXO }

// ParseRaw decodes a JSON record and normalizes it.
func (p *Parser) ParseRaw(data []byte, watched string) (*chain.NormalizedTransaction, error) {
	var raw RawTransaction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidFormat, err)
	}
	return p.Parse(&raw, watched), nil
}

// Parse normalizes a record relative to the watched address.
//
// Inputs spent by watched aggregate into one native transfer from watched to
// the first foreign output. Otherwise outputs paying watched aggregate into one
// native transfer to watched. The fee is attributed only when watched funded
// the transaction.
func (p *Parser) Parse(raw *RawTransaction, watched string) *chain.NormalizedTransaction {
	out := chain.NewNormalizedTransaction(p.network.ChainID, raw.TxID)
	out.BlockHash = raw.BlockHash
	out.BlockHeight = raw.BlockHeight
	out.Timestamp = raw.BlockTime
	out.Confirmations = raw.Confirmations
	out.Status = chain.StatusFromConfirmations(raw.Confirmations)

	me := p.normalize(watched)

	spent, inputTotal := new(big.Int), new(big.Int)
	var isSender bool
	var firstSender string
	for _, in := range raw.Vin {
		value := p.value(in.Value, raw.TxID)
		inputTotal.Add(inputTotal, value)
		if firstSender == "" && len(in.Addresses) > 0 {
			firstSender = in.Addresses[0]
		}
		if p.touches(in.Addresses, me) {
			isSender = true
			spent.Add(spent, value)
		}
	}

	toMe, toOthers, outputTotal := new(big.Int), new(big.Int), new(big.Int)
	var firstRecipient string
	for _, o := range raw.Vout {
		value := p.value(o.Value, raw.TxID)
		outputTotal.Add(outputTotal, value)
		addrs := o.Addresses
		if len(addrs) == 0 && o.Hex != "" {
			addrs = p.scriptAddresses(o.Hex)
		}
		if p.touches(addrs, me) {
			toMe.Add(toMe, value)
			continue
		}
		toOthers.Add(toOthers, value)
		if firstRecipient == "" && len(addrs) > 0 {
			firstRecipient = addrs[0]
		}
	}

	switch {
	case isSender:
		transfer := chain.Transfer{
			Type:    chain.TransferNative,
			From:    watched,
			To:      firstRecipient,
			AssetID: p.network.NativeAsset,
			Value:   toOthers.String(),
		}
		if toOthers.Sign() == 0 {
			// Consolidation back to ourselves.
			transfer.To = watched
			transfer.Value = toMe.String()
		}
		out.Transfers = append(out.Transfers, transfer)
		out.Fee = &chain.Fee{AssetID: p.network.NativeAsset, Value: p.fee(raw.Fees, inputTotal, outputTotal).String()}
	case toMe.Sign() > 0:
		out.Transfers = append(out.Transfers, chain.Transfer{
			Type:    chain.TransferNative,
			From:    firstSender,
			To:      watched,
			AssetID: p.network.NativeAsset,
			Value:   toMe.String(),
		})
	}

	return out
}

func (p *Parser) fee(reported string, in, out *big.Int) *big.Int {
	if v, ok := chain.ParseBaseUnits(reported); ok {
		return v
	}
	if in.Cmp(out) > 0 {
		return new(big.Int).Sub(in, out)
	}
	return new(big.Int)
}

func (p *Parser) value(s, txid string) *big.Int {
	v, ok := chain.ParseBaseUnits(s)
	if !ok {
		p.logger.Debug("tx %s: unparseable value %q treated as zero", txid, s)
		return new(big.Int)
	}
	return v
}

func (p *Parser) scriptAddresses(scriptHex string) []string {
	script, err := hex.DecodeString(scriptHex)
	if err != nil {
		return nil
	}
	return p.codec.ScriptAddresses(script)
}

// normalize returns the canonical encoding of an address, or the input when
// it does not decode.
func (p *Parser) normalize(address string) string {
	if addr, err := p.codec.Decode(address); err == nil {
		return addr.String()
	}
	return address
}

func (p *Parser) touches(addrs []string, me string) bool {
	for _, a := range addrs {
		if a == me || p.normalize(a) == me {
			return true
		}
	}
	return false
}

// Compile-time interface check
var _ chain.Parser = (*Parser)(nil)
