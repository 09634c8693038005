package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// callABI covers the ERC-20 transfer and the THORChain style router deposits.
const callABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"deposit","stateMutability":"payable",
	 "inputs":[{"name":"vault","type":"address"},{"name":"asset","type":"address"},
	           {"name":"amount","type":"uint256"},{"name":"memo","type":"string"}],
	 "outputs":[]},
	{"type":"function","name":"depositWithExpiry","stateMutability":"payable",
	 "inputs":[{"name":"vault","type":"address"},{"name":"asset","type":"address"},
	           {"name":"amount","type":"uint256"},{"name":"memo","type":"string"},
	           {"name":"expiration","type":"uint256"}],
	 "outputs":[]}
]`

//nolint:gochecknoglobals // parsed once from the constant above
var knownABI = mustParseABI(callABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("evm: invalid call ABI: %v", err))
	}
	return parsed
}

// KnownCall is a decoded contract call. Kind is one of the chain.CallMethod
// constants; fields that do not apply to the kind are left zero.
type KnownCall struct {
	Kind     string
	Selector string // 0x prefixed, lower case; empty when data is shorter than a selector

	// transfer: To and Amount. deposit: Vault, Asset, Amount and Memo,
	// plus Expiry for depositWithExpiry.
	To     common.Address
	Vault  common.Address
	Asset  common.Address
	Amount *big.Int
	Memo   string
	Expiry *big.Int
}

// IsRecognized reports whether the call matched the known selector table.
func (k KnownCall) IsRecognized() bool {
	return k.Kind != chain.CallMethodUnrecognized
}

// IsNativeDeposit reports whether a router deposit moves the native asset.
func (k KnownCall) IsNativeDeposit() bool {
	return (k.Kind == chain.CallMethodDeposit || k.Kind == chain.CallMethodDepositWithExpiry) &&
		k.Asset == (common.Address{})
}

// EncodeTransfer encodes transfer(address,uint256).
func EncodeTransfer(to common.Address, value *big.Int) ([]byte, error) {
	return pack(chain.CallMethodTransfer, to, value)
}

// EncodeRouterDeposit encodes deposit(address,address,uint256,string). The
// zero asset address deposits the native asset.
func EncodeRouterDeposit(vault, asset common.Address, amount *big.Int, memo string) ([]byte, error) {
	return pack(chain.CallMethodDeposit, vault, asset, amount, memo)
}

// EncodeRouterDepositWithExpiry encodes
// depositWithExpiry(address,address,uint256,string,uint256).
func EncodeRouterDepositWithExpiry(vault, asset common.Address, amount *big.Int, memo string, expiry *big.Int) ([]byte, error) {
	return pack(chain.CallMethodDepositWithExpiry, vault, asset, amount, memo, expiry)
}

// Encode re-encodes a decoded call.
func (k KnownCall) Encode() ([]byte, error) {
	switch k.Kind {
	case chain.CallMethodTransfer:
		return EncodeTransfer(k.To, k.Amount)
	case chain.CallMethodDeposit:
		return EncodeRouterDeposit(k.Vault, k.Asset, k.Amount, k.Memo)
	case chain.CallMethodDepositWithExpiry:
		return EncodeRouterDepositWithExpiry(k.Vault, k.Asset, k.Amount, k.Memo, k.Expiry)
	default:
		return nil, coreerr.Newf(coreerr.ErrInvalidInput, "cannot encode %s call", k.Kind)
	}
}

func pack(method string, args ...any) ([]byte, error) {
	for _, arg := range args {
		if v, ok := arg.(*big.Int); ok && (v == nil || v.Sign() < 0) {
			return nil, coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{"method": method})
		}
	}
	data, err := knownABI.Pack(method, args...)
	if err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidInput, err)
	}
	return data, nil
}

// DecodeKnownCall classifies call data against the known selector table.
// Unknown selectors and malformed arguments yield an unrecognized call; this
// never fails.
func DecodeKnownCall(data []byte) KnownCall {
	call := KnownCall{Kind: chain.CallMethodUnrecognized}
	if len(data) < 4 {
		return call
	}
	call.Selector = "0x" + hex.EncodeToString(data[:4])

	method, err := knownABI.MethodById(data[:4])
	if err != nil {
		return call
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil || len(args) != len(method.Inputs) {
		return call
	}

	switch method.Name {
	case chain.CallMethodTransfer:
		to, okTo := args[0].(common.Address)
		amount, okAmount := args[1].(*big.Int)
		if !okTo || !okAmount {
			return call
		}
		call.To, call.Amount = to, amount
	case chain.CallMethodDeposit, chain.CallMethodDepositWithExpiry:
		vault, okVault := args[0].(common.Address)
		asset, okAsset := args[1].(common.Address)
		amount, okAmount := args[2].(*big.Int)
		memo, okMemo := args[3].(string)
		if !okVault || !okAsset || !okAmount || !okMemo {
			return call
		}
		call.Vault, call.Asset, call.Amount, call.Memo = vault, asset, amount, memo
		if method.Name == chain.CallMethodDepositWithExpiry {
			expiry, ok := args[4].(*big.Int)
			if !ok {
				return call
			}
			call.Expiry = expiry
		}
	default:
		return call
	}

	call.Kind = method.Name
	return call
}

// DecodeHexCall decodes 0x prefixed call data, treating bad hex as unrecognized.
func DecodeHexCall(input string) KnownCall {
	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X"))
	if err != nil {
		return KnownCall{Kind: chain.CallMethodUnrecognized}
	}
	return DecodeKnownCall(data)
}
