// Package chain provides the chain-family contracts and the shared value
// types exchanged between adapters, parsers and callers.
package chain

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/mrz1836/chaincore/internal/bip44"
	"github.com/mrz1836/chaincore/internal/caip"
)

// Family identifies a ledger model.
type Family string

// Supported chain families.
const (
	FamilyUTXO      Family = "utxo"
	FamilyAccount   Family = "account"
	FamilyCosmosSDK Family = "cosmos"
)

// String returns the family name.
func (f Family) String() string {
	return string(f)
}

// IsValid returns true if the family is known.
func (f Family) IsValid() bool {
	switch f {
	case FamilyUTXO, FamilyAccount, FamilyCosmosSDK:
		return true
	default:
		return false
	}
}

// FamilyForNamespace maps a CAIP-2 namespace onto its ledger model.
func FamilyForNamespace(namespace string) (Family, bool) {
	switch namespace {
	case caip.NamespaceBIP122:
		return FamilyUTXO, true
	case caip.NamespaceEIP155:
		return FamilyAccount, true
	case caip.NamespaceCosmos:
		return FamilyCosmosSDK, true
	default:
		return "", false
	}
}

// Identifier provides chain identification.
type Identifier interface {
	// ChainID returns the CAIP-2 identifier of the network.
	ChainID() caip.ChainID

	// Family returns the ledger model of the network.
	Family() Family
}

// AddressValidator provides address validation.
type AddressValidator interface {
	// ValidateAddress checks if an address is valid for this chain.
	ValidateAddress(address string) error
}

// FeeEstimator provides fee estimation capabilities.
type FeeEstimator interface {
	// EstimateFee estimates the fee for a transaction.
	// UTXO: fee rate * estimated size after selection.
	// Account: gas limit * gas price.
	// Cosmos: the configured or supplied fixed fee.
	EstimateFee(req *BuildRequest) (*FeeEstimate, error)
}

// Builder turns an intent into an unsigned transaction.
type Builder interface {
	BuildUnsignedTransaction(req *BuildRequest) (UnsignedTransaction, error)
}

// AddressDeriver encodes public keys as chain addresses.
type AddressDeriver interface {
	// AddressFromPublicKey encodes a compressed secp256k1 key for this chain.
	AddressFromPublicKey(pub *btcec.PublicKey) (string, error)
}

// Adapter is the uniform construction contract implemented once per family.
type Adapter interface {
	Identifier
	AddressValidator
	AddressDeriver
	FeeEstimator
	Builder
}

// Parser normalizes raw indexer records for one network.
type Parser interface {
	Identifier

	// ParseRaw decodes a JSON record and normalizes it relative to watched.
	// Only malformed JSON is an error; unknown payloads degrade gracefully.
	ParseRaw(data []byte, watched string) (*NormalizedTransaction, error)
}

// ParseAddress is the boolean form of ValidateAddress.
func ParseAddress(v AddressValidator, address string) bool {
	return v.ValidateAddress(address) == nil
}

// DeriveAddress derives the address at p below an account extended public key.
func DeriveAddress(d AddressDeriver, accountXPub string, p bip44.Params) (string, error) {
	pub, err := bip44.ChildPublicKey(accountXPub, p)
	if err != nil {
		return "", err
	}
	return d.AddressFromPublicKey(pub)
}

// LogWriter is the logging surface adapters and parsers depend on.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// LoggerOrNop returns l, or a logger that drops everything when l is nil.
func LoggerOrNop(l LogWriter) LogWriter {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// UTXO represents an unspent transaction output supplied by an indexer.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"value"` // satoshis
	ScriptPubKey  string `json:"script_pub_key,omitempty"`
	Address       string `json:"address,omitempty"`
	Confirmations uint32 `json:"confirmations,omitempty"`
}

// AmountToBigInt converts a uint64 amount to *big.Int.
func AmountToBigInt(amount uint64) *big.Int {
	return new(big.Int).SetUint64(amount)
}
