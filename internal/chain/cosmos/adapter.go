// Package cosmos implements the Cosmos-SDK family: bech32 addresses,
// bank and staking message assembly, and event based history parsing.
package cosmos

import (
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptocodec "github.com/cosmos/cosmos-sdk/crypto/codec"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distrtypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// validatorSuffix is appended to the account prefix for operator addresses.
const validatorSuffix = "valoper"

// Adapter builds unsigned Cosmos-SDK transactions for one network.
type Adapter struct {
	network    chain.Network
	logger     chain.LogWriter
	cdc        codec.Codec
	defaultGas uint64
	defaultFee uint64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l chain.LogWriter) Option {
	return func(a *Adapter) { a.logger = chain.LoggerOrNop(l) }
}

// WithDefaultGas overrides the network gas limit used when a request omits one.
func WithDefaultGas(gas uint64) Option {
	return func(a *Adapter) {
		if gas > 0 {
			a.defaultGas = gas
		}
	}
}

// WithDefaultFee overrides the network fee used when a request omits one.
func WithDefaultFee(fee uint64) Option {
	return func(a *Adapter) {
		if fee > 0 {
			a.defaultFee = fee
		}
	}
}

// NewAdapter creates an adapter for a Cosmos-SDK network.
func NewAdapter(n chain.Network, opts ...Option) (*Adapter, error) {
	if n.Family != chain.FamilyCosmosSDK {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "%s is not a Cosmos-SDK chain", n.ChainID)
	}
	a := &Adapter{
		network:    n,
		logger:     chain.LoggerOrNop(nil),
		cdc:        newCodec(),
		defaultGas: n.DefaultGas,
		defaultFee: n.DefaultFee,
	}
	if a.defaultGas == 0 {
		a.defaultGas = chain.DefaultCosmosGas
	}
	if a.defaultFee == 0 {
		a.defaultFee = chain.DefaultCosmosFee
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func newCodec() *codec.ProtoCodec {
	ir := codectypes.NewInterfaceRegistry()
	cryptocodec.RegisterInterfaces(ir)
	banktypes.RegisterInterfaces(ir)
	stakingtypes.RegisterInterfaces(ir)
	distrtypes.RegisterInterfaces(ir)
	return codec.NewProtoCodec(ir)
}

// ChainID implements chain.Identifier.
func (a *Adapter) ChainID() caip.ChainID { return a.network.ChainID }

// Family implements chain.Identifier.
func (a *Adapter) Family() chain.Family { return chain.FamilyCosmosSDK }

// ValidateAddress checks that an account address carries this network's
// prefix and a 20 or 32 byte payload.
func (a *Adapter) ValidateAddress(address string) error {
	return validateBech32(address, a.network.Bech32Prefix, a.network.Symbol)
}

// ValidateValidatorAddress checks an operator address (prefix + "valoper").
func (a *Adapter) ValidateValidatorAddress(address string) error {
	return validateBech32(address, a.network.Bech32Prefix+validatorSuffix, a.network.Symbol)
}

func validateBech32(address, hrp, symbol string) error {
	if address == "" {
		return coreerr.ErrInvalidAddress
	}
	details := map[string]string{"address": address, "chain": symbol}
	got, data, err := bech32.DecodeAndConvert(address)
	if err != nil {
		return coreerr.WithDetails(coreerr.WithCause(coreerr.ErrInvalidAddress, err), details)
	}
	if got != hrp {
		details["prefix"] = got
		details["expected_prefix"] = hrp
		return coreerr.WithDetails(coreerr.ErrInvalidAddress, details)
	}
	if len(data) != 20 && len(data) != 32 {
		return coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidAddress, "unexpected payload length %d", len(data)),
			details,
		)
	}
	return nil
}

// AddressFromPublicKey encodes HASH160 of the compressed key with the
// network prefix.
func (a *Adapter) AddressFromPublicKey(pub *btcec.PublicKey) (string, error) {
	addr, err := bech32.ConvertAndEncode(a.network.Bech32Prefix, btcutil.Hash160(pub.SerializeCompressed()))
	if err != nil {
		return "", fmt.Errorf("encoding %s address: %w", a.network.Symbol, err)
	}
	return addr, nil
}

// EstimateFee reports the fixed fee of a build: the requested amount, or
// the network default.
func (a *Adapter) EstimateFee(req *chain.BuildRequest) (*chain.FeeEstimate, error) {
	p, err := a.plan(req)
	if err != nil {
		return nil, err
	}
	return &chain.FeeEstimate{
		Asset:    a.network.NativeAsset,
		Amount:   p.fee.Amount.BigInt(),
		GasLimit: p.gas,
	}, nil
}

// BuildUnsignedTransaction assembles the message and encodes the body and
// auth info for SIGN_MODE_DIRECT.
func (a *Adapter) BuildUnsignedTransaction(req *chain.BuildRequest) (chain.UnsignedTransaction, error) {
	p, err := a.plan(req)
	if err != nil {
		return nil, err
	}

	anyMsg, err := codectypes.NewAnyWithValue(p.msg)
	if err != nil {
		return nil, fmt.Errorf("packing %s message: %w", p.action, err)
	}
	body := &txtypes.TxBody{
		Messages: []*codectypes.Any{anyMsg},
		Memo:     req.Memo,
	}
	bodyBytes, err := a.cdc.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding tx body: %w", err)
	}

	signer, err := signerInfo(req.Cosmos)
	if err != nil {
		return nil, err
	}
	authInfo := &txtypes.AuthInfo{
		SignerInfos: []*txtypes.SignerInfo{signer},
		Fee: &txtypes.Fee{
			Amount:   sdk.NewCoins(p.fee),
			GasLimit: p.gas,
		},
	}
	authInfoBytes, err := a.cdc.Marshal(authInfo)
	if err != nil {
		return nil, fmt.Errorf("encoding auth info: %w", err)
	}

	p.summary.TypeURL = anyMsg.TypeUrl
	a.logger.Debug("built %s %s for %s", a.network.Symbol, p.action, p.summary.From)

	return &chain.CosmosTransaction{
		ChainID:        a.network.ChainID,
		ChainReference: a.network.ChainID.Reference,
		Message:        p.summary,
		Memo:           req.Memo,
		Fee:            []chain.Coin{{Denom: p.fee.Denom, Amount: p.fee.Amount.String()}},
		Gas:            p.gas,
		AccountNumber:  req.Cosmos.AccountNumber,
		Sequence:       req.Cosmos.Sequence,
		BodyBytes:      bodyBytes,
		AuthInfoBytes:  authInfoBytes,
	}, nil
}

func signerInfo(params *chain.CosmosParams) (*txtypes.SignerInfo, error) {
	info := &txtypes.SignerInfo{
		ModeInfo: &txtypes.ModeInfo{
			Sum: &txtypes.ModeInfo_Single_{
				Single: &txtypes.ModeInfo_Single{Mode: signing.SignMode_SIGN_MODE_DIRECT},
			},
		},
		Sequence: params.Sequence,
	}
	if len(params.PubKey) == 0 {
		return info, nil
	}
	if _, err := btcec.ParsePubKey(params.PubKey); err != nil || len(params.PubKey) != btcec.PubKeyBytesLenCompressed {
		return nil, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidInput, "pub_key must be a compressed secp256k1 key"),
			map[string]string{"field": "pub_key"},
		)
	}
	pk, err := codectypes.NewAnyWithValue(&secp256k1.PubKey{Key: params.PubKey})
	if err != nil {
		return nil, fmt.Errorf("packing public key: %w", err)
	}
	info.PublicKey = pk
	return info, nil
}

type buildPlan struct {
	action  chain.CosmosAction
	msg     proto.Message
	summary chain.CosmosMessage
	fee     sdk.Coin
	gas     uint64
}

func (a *Adapter) plan(req *chain.BuildRequest) (*buildPlan, error) {
	if req == nil {
		return nil, coreerr.Newf(coreerr.ErrMissingParam, "build request is required")
	}
	params := req.Cosmos
	if params == nil {
		return nil, chain.MissingParams(chain.FamilyCosmosSDK)
	}
	if req.From == "" {
		return nil, missingField("from")
	}
	if err := a.ValidateAddress(req.From); err != nil {
		return nil, err
	}

	p := &buildPlan{action: params.Action, gas: params.Gas}
	if p.action == "" {
		p.action = chain.CosmosActionSend
	}
	if p.gas == 0 {
		p.gas = a.defaultGas
	}
	fee := params.FeeAmount
	if fee == nil || fee.Sign() == 0 {
		fee = new(big.Int).SetUint64(a.defaultFee)
	}
	feeAmount, err := toInt(fee, "fee_amount")
	if err != nil {
		return nil, err
	}
	p.fee = sdk.Coin{Denom: a.network.Denom, Amount: feeAmount}

	switch p.action {
	case chain.CosmosActionSend:
		return p, a.planSend(req, p)
	case chain.CosmosActionDelegate, chain.CosmosActionUndelegate:
		return p, a.planStake(req, p)
	case chain.CosmosActionClaim:
		validator, err := validatorOf(params)
		if err != nil {
			return nil, err
		}
		p.msg = &distrtypes.MsgWithdrawDelegatorReward{DelegatorAddress: req.From, ValidatorAddress: validator}
		p.summary = chain.CosmosMessage{From: req.From, Validator: validator}
		return p, nil
	default:
		return nil, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidInput, "unknown cosmos action %q", p.action),
			map[string]string{"allowed": "send, delegate, undelegate, or claim"},
		)
	}
}

func (a *Adapter) planSend(req *chain.BuildRequest, p *buildPlan) error {
	if err := req.ValidateCommon(); err != nil {
		return err
	}
	if err := a.ValidateAddress(req.To); err != nil {
		return err
	}
	denom, err := a.denomFor(req.AssetOr(a.network.NativeAsset))
	if err != nil {
		return err
	}
	value, err := toInt(req.Amount, "amount")
	if err != nil {
		return err
	}
	amount := sdk.Coin{Denom: denom, Amount: value}
	p.msg = &banktypes.MsgSend{FromAddress: req.From, ToAddress: req.To, Amount: sdk.Coins{amount}}
	p.summary = chain.CosmosMessage{From: req.From, To: req.To, Amount: &chain.Coin{Denom: denom, Amount: amount.Amount.String()}}
	return nil
}

func (a *Adapter) planStake(req *chain.BuildRequest, p *buildPlan) error {
	if req.Amount == nil {
		return missingField("amount")
	}
	if req.Amount.Sign() <= 0 {
		return coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{"amount": req.Amount.String()})
	}
	if asset := req.AssetOr(a.network.NativeAsset); asset != a.network.NativeAsset {
		return coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidInput, "only the bond denom can be staked"),
			map[string]string{"asset": asset.String()},
		)
	}
	validator, err := validatorOf(req.Cosmos)
	if err != nil {
		return err
	}
	value, err := toInt(req.Amount, "amount")
	if err != nil {
		return err
	}
	amount := sdk.Coin{Denom: a.network.Denom, Amount: value}
	if p.action == chain.CosmosActionDelegate {
		p.msg = &stakingtypes.MsgDelegate{DelegatorAddress: req.From, ValidatorAddress: validator, Amount: amount}
	} else {
		p.msg = &stakingtypes.MsgUndelegate{DelegatorAddress: req.From, ValidatorAddress: validator, Amount: amount}
	}
	p.summary = chain.CosmosMessage{
		From:      req.From,
		Validator: validator,
		Amount:    &chain.Coin{Denom: amount.Denom, Amount: amount.Amount.String()},
	}
	return nil
}

// validatorOf returns the operator address unchanged; only presence is checked.
func validatorOf(params *chain.CosmosParams) (string, error) {
	if params.Validator == "" {
		return "", missingField("validator")
	}
	return params.Validator, nil
}

// denomFor maps an asset of this chain onto its bank denom.
func (a *Adapter) denomFor(asset caip.AssetID) (string, error) {
	if asset.ChainID != a.network.ChainID {
		return "", coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrUnsupportedChain, "asset %s is not on %s", asset, a.network.ChainID),
			map[string]string{"asset": asset.String()},
		)
	}
	var denom string
	switch asset.AssetNamespace {
	case caip.AssetNamespaceSLIP44:
		denom = a.network.Denom
	case caip.AssetNamespaceIBC:
		denom = "ibc/" + strings.ToUpper(asset.AssetReference)
	case caip.AssetNamespaceNative:
		denom = asset.AssetReference
	default:
		return "", coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrUnsupportedChain, "cannot send %s assets with a bank message", asset.AssetNamespace),
			map[string]string{"asset": asset.String()},
		)
	}
	if err := sdk.ValidateDenom(denom); err != nil {
		return "", coreerr.WithDetails(coreerr.WithCause(coreerr.ErrInvalidInput, err), map[string]string{"denom": denom})
	}
	return denom, nil
}

// AssetForDenom maps a bank denom of this network back onto a CAIP-19 asset.
// It reports false for denoms that have no asset form, such as factory denoms.
func AssetForDenom(n chain.Network, denom string) (caip.AssetID, bool) {
	if denom == n.Denom {
		return n.NativeAsset, true
	}
	if hash, ok := strings.CutPrefix(denom, "ibc/"); ok {
		asset, err := caip.NewAssetID(n.ChainID, caip.AssetNamespaceIBC, hash)
		return asset, err == nil
	}
	asset, err := caip.NewAssetID(n.ChainID, caip.AssetNamespaceNative, denom)
	return asset, err == nil
}

// toInt converts a non-negative amount that fits the SDK's 256-bit integers.
func toInt(v *big.Int, field string) (sdkmath.Int, error) {
	if v.Sign() < 0 || v.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Int{}, coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{field: v.String()})
	}
	return sdkmath.NewIntFromBigInt(v), nil
}

func missingField(field string) error {
	return coreerr.WithDetails(
		coreerr.Newf(coreerr.ErrMissingParam, "%s is required", field),
		map[string]string{"field": field},
	)
}

// Compile-time interface check
var _ chain.Adapter = (*Adapter)(nil)
