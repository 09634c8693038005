// Package utxo implements construction and normalization for Bitcoin-like
// UTXO chains (Bitcoin, Litecoin, Bitcoin Cash, Dogecoin).
package utxo

import (
	"errors"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	bchchaincfg "github.com/gcash/bchd/chaincfg"
	bchtxscript "github.com/gcash/bchd/txscript"
	"github.com/gcash/bchutil"
	ltcchaincfg "github.com/ltcsuite/ltcd/chaincfg"
	"github.com/ltcsuite/ltcd/ltcutil"
	ltctxscript "github.com/ltcsuite/ltcd/txscript"

	"github.com/mrz1836/chaincore/internal/caip"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// errWrongNetwork indicates a well-formed address for another network.
var errWrongNetwork = errors.New("address belongs to a different network")

// DogeMainNetParams defines the Dogecoin mainnet address parameters.
//
//nolint:gochecknoglobals // network constants
var DogeMainNetParams = chaincfg.Params{
	Name:             "doge-mainnet",
	Net:              0xc0c0c0c0,
	PubKeyHashAddrID: 0x1E, // D prefix
	ScriptHashAddrID: 0x16, // 9 or A prefix
}

// Address is a chain-agnostic UTXO address.
type Address interface {
	// String returns the canonical encoding (bc1q..., ltc1q..., q..., D...).
	String() string

	// ScriptAddress returns the 20 or 32 byte hash the address commits to.
	ScriptAddress() []byte

	// PayToAddrScript returns the scriptPubKey paying to this address.
	PayToAddrScript() ([]byte, error)
}

// Codec decodes and encodes addresses with one chain's native library.
type Codec interface {
	Decode(s string) (Address, error)
	FromPubKeyHash(pubKeyHash []byte, segwit bool) (Address, error)
	ScriptAddresses(script []byte) []string

	// MaxAmount is the largest value, in satoshis, one output or input may carry.
	MaxAmount() uint64
}

// CodecFor returns the address codec of a UTXO chain.
func CodecFor(id caip.ChainID) (Codec, error) {
	switch id {
	case caip.BitcoinMainnet:
		return btcCodec{params: &chaincfg.MainNetParams, maxAmount: btcutil.MaxSatoshi}, nil
	case caip.BitcoinTestnet:
		return btcCodec{params: &chaincfg.TestNet3Params, maxAmount: btcutil.MaxSatoshi}, nil
	case caip.DogecoinMainnet:
		// Dogecoin has no supply cap; the wire format bounds values.
		return btcCodec{params: &DogeMainNetParams, maxAmount: math.MaxInt64}, nil
	case caip.LitecoinMainnet:
		return ltcCodec{params: &ltcchaincfg.MainNetParams}, nil
	case caip.BitcoinCash:
		return bchCodec{params: &bchchaincfg.MainNetParams}, nil
	default:
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "no UTXO address codec for %s", id)
	}
}

// Bitcoin and Dogecoin share btcutil with different parameters.
type btcCodec struct {
	params    *chaincfg.Params
	maxAmount uint64
}

func (c btcCodec) MaxAmount() uint64 { return c.maxAmount }

type btcAddress struct {
	addr btcutil.Address
}

func (a btcAddress) String() string        { return a.addr.EncodeAddress() }
func (a btcAddress) ScriptAddress() []byte { return a.addr.ScriptAddress() }
func (a btcAddress) PayToAddrScript() ([]byte, error) {
	return txscript.PayToAddrScript(a.addr)
}

func (c btcCodec) Decode(s string) (Address, error) {
	addr, err := btcutil.DecodeAddress(s, c.params)
	if err != nil {
		return nil, err
	}
	if !addr.IsForNet(c.params) {
		return nil, errWrongNetwork
	}
	return btcAddress{addr: addr}, nil
}

func (c btcCodec) FromPubKeyHash(pubKeyHash []byte, segwit bool) (Address, error) {
	var addr btcutil.Address
	var err error
	if segwit && c.params.Bech32HRPSegwit != "" {
		addr, err = btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, c.params)
	} else {
		addr, err = btcutil.NewAddressPubKeyHash(pubKeyHash, c.params)
	}
	if err != nil {
		return nil, err
	}
	return btcAddress{addr: addr}, nil
}

func (c btcCodec) ScriptAddresses(script []byte) []string {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, c.params)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.EncodeAddress())
	}
	return out
}

type ltcCodec struct {
	params *ltcchaincfg.Params
}

func (ltcCodec) MaxAmount() uint64 { return ltcutil.MaxSatoshi }

type ltcAddress struct {
	addr ltcutil.Address
}

func (a ltcAddress) String() string        { return a.addr.EncodeAddress() }
func (a ltcAddress) ScriptAddress() []byte { return a.addr.ScriptAddress() }
func (a ltcAddress) PayToAddrScript() ([]byte, error) {
	return ltctxscript.PayToAddrScript(a.addr)
}

func (c ltcCodec) Decode(s string) (Address, error) {
	addr, err := ltcutil.DecodeAddress(s, c.params)
	if err != nil {
		return nil, err
	}
	if !addr.IsForNet(c.params) {
		return nil, errWrongNetwork
	}
	return ltcAddress{addr: addr}, nil
}

func (c ltcCodec) FromPubKeyHash(pubKeyHash []byte, segwit bool) (Address, error) {
	var addr ltcutil.Address
	var err error
	if segwit {
		addr, err = ltcutil.NewAddressWitnessPubKeyHash(pubKeyHash, c.params)
	} else {
		addr, err = ltcutil.NewAddressPubKeyHash(pubKeyHash, c.params)
	}
	if err != nil {
		return nil, err
	}
	return ltcAddress{addr: addr}, nil
}

func (c ltcCodec) ScriptAddresses(script []byte) []string {
	_, addrs, _, err := ltctxscript.ExtractPkScriptAddrs(script, c.params)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.EncodeAddress())
	}
	return out
}

// Bitcoin Cash has no segwit; addresses are CashAddr.
type bchCodec struct {
	params *bchchaincfg.Params
}

func (bchCodec) MaxAmount() uint64 { return bchutil.MaxSatoshi }

type bchAddress struct {
	addr bchutil.Address
}

func (a bchAddress) String() string        { return a.addr.EncodeAddress() }
func (a bchAddress) ScriptAddress() []byte { return a.addr.ScriptAddress() }
func (a bchAddress) PayToAddrScript() ([]byte, error) {
	return bchtxscript.PayToAddrScript(a.addr)
}

func (c bchCodec) Decode(s string) (Address, error) {
	addr, err := bchutil.DecodeAddress(s, c.params)
	if err != nil {
		return nil, err
	}
	if !addr.IsForNet(c.params) {
		return nil, errWrongNetwork
	}
	return bchAddress{addr: addr}, nil
}

func (c bchCodec) FromPubKeyHash(pubKeyHash []byte, _ bool) (Address, error) {
	addr, err := bchutil.NewAddressPubKeyHash(pubKeyHash, c.params)
	if err != nil {
		return nil, err
	}
	return bchAddress{addr: addr}, nil
}

func (c bchCodec) ScriptAddresses(script []byte) []string {
	_, addrs, _, err := bchtxscript.ExtractPkScriptAddrs(script, c.params)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.EncodeAddress())
	}
	return out
}
