package evm

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// Adapter builds unsigned legacy transactions for one EVM network.
type Adapter struct {
	network       chain.Network
	logger        chain.LogWriter
	gasMultiplier float64
	chainID       *big.Int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l chain.LogWriter) Option {
	return func(a *Adapter) { a.logger = chain.LoggerOrNop(l) }
}

// WithGasMultiplier overrides the safety margin applied to estimated gas.
func WithGasMultiplier(m float64) Option {
	return func(a *Adapter) {
		if m > 0 {
			a.gasMultiplier = m
		}
	}
}

// WithChainID overrides the network's numeric chain id for every build.
func WithChainID(id uint64) Option {
	return func(a *Adapter) {
		if id > 0 {
			a.chainID = new(big.Int).SetUint64(id)
		}
	}
}

// NewAdapter creates an adapter for an EVM network.
func NewAdapter(n chain.Network, opts ...Option) (*Adapter, error) {
	if n.Family != chain.FamilyAccount {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "%s is not an account chain", n.ChainID)
	}
	numeric, ok := n.ChainID.NumericReference()
	if !ok {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "%s has no numeric EIP-155 chain id", n.ChainID)
	}
	a := &Adapter{
		network:       n,
		logger:        chain.LoggerOrNop(nil),
		gasMultiplier: DefaultGasMultiplier,
		chainID:       new(big.Int).SetUint64(numeric),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ChainID implements chain.Identifier.
func (a *Adapter) ChainID() caip.ChainID { return a.network.ChainID }

// Family implements chain.Identifier.
func (a *Adapter) Family() chain.Family { return chain.FamilyAccount }

// ValidateAddress checks the format and, for mixed case, the EIP-55 checksum.
func (a *Adapter) ValidateAddress(address string) error {
	if err := ValidateChecksumAddress(address); err != nil {
		return coreerr.WithDetails(err, map[string]string{"chain": a.network.Symbol})
	}
	return nil
}

// AddressFromPublicKey implements chain.AddressDeriver.
func (a *Adapter) AddressFromPublicKey(pub *btcec.PublicKey) (string, error) {
	return AddressFromPublicKey(pub), nil
}

// EstimateFee returns gas limit times gas price for the request.
func (a *Adapter) EstimateFee(req *chain.BuildRequest) (*chain.FeeEstimate, error) {
	p, err := a.plan(req)
	if err != nil {
		return nil, err
	}
	return &chain.FeeEstimate{
		Asset:    a.network.NativeAsset,
		Amount:   new(big.Int).Mul(p.gasPrice, new(big.Int).SetUint64(p.gasLimit)),
		GasLimit: p.gasLimit,
		GasPrice: p.gasPrice,
	}, nil
}

// BuildUnsignedTransaction assembles a legacy transaction and its EIP-155
// signing hash.
func (a *Adapter) BuildUnsignedTransaction(req *chain.BuildRequest) (chain.UnsignedTransaction, error) {
	p, err := a.plan(req)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(p.to)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    req.Account.Nonce,
		To:       &to,
		Value:    p.value,
		Gas:      p.gasLimit,
		GasPrice: p.gasPrice,
		Data:     p.data,
	})
	hash := types.NewEIP155Signer(p.chainID).Hash(tx)

	a.logger.Debug("built %s tx: to %s, value %s, gas %d @ %s, data %d bytes",
		a.network.Symbol, to.Hex(), p.value, p.gasLimit, FormatGasPrice(p.gasPrice), len(p.data))

	return &chain.AccountTransaction{
		ChainID:        a.network.ChainID,
		From:           p.from,
		To:             to.Hex(),
		Value:          p.value,
		Data:           p.data,
		Nonce:          req.Account.Nonce,
		GasLimit:       p.gasLimit,
		GasPrice:       p.gasPrice,
		NumericChainID: p.chainID,
		SigningHash:    hash.Bytes(),
	}, nil
}

type plan struct {
	from     string
	to       string
	value    *big.Int
	data     []byte
	gasLimit uint64
	gasPrice *big.Int
	chainID  *big.Int
}

func (a *Adapter) plan(req *chain.BuildRequest) (*plan, error) {
	if err := req.ValidateCommon(); err != nil {
		return nil, err
	}
	params := req.Account
	if params == nil {
		return nil, chain.MissingParams(chain.FamilyAccount)
	}
	if params.GasPrice == nil {
		return nil, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrMissingParam, "gas price is required"),
			map[string]string{"field": "gas_price"},
		)
	}
	if params.GasPrice.Sign() < 0 {
		return nil, coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{"gas_price": params.GasPrice.String()})
	}
	speed, err := ParseGasSpeed(string(params.Speed))
	if err != nil {
		return nil, err
	}
	if err := a.ValidateAddress(req.To); err != nil {
		return nil, err
	}
	p := &plan{gasPrice: GasPriceForSpeed(params.GasPrice, speed), chainID: a.chainID}
	if req.From != "" {
		if err := a.ValidateAddress(req.From); err != nil {
			return nil, err
		}
		p.from = ToChecksumAddress(req.From)
	}
	if params.ChainID != nil && params.ChainID.Sign() > 0 {
		p.chainID = params.ChainID
	}

	asset := req.AssetOr(a.network.NativeAsset)
	if asset.ChainID != a.network.ChainID {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "asset %s cannot be sent on %s", asset, a.network.ChainID)
	}

	defaultGas := GasLimitNativeTransfer
	switch {
	case params.Router != nil:
		if err := a.planRouterDeposit(p, req, asset); err != nil {
			return nil, err
		}
		defaultGas = GasLimitRouterDeposit
	case asset == a.network.NativeAsset:
		p.to = req.To
		p.value = new(big.Int).Set(req.Amount)
	case asset.IsToken():
		data, err := EncodeTransfer(common.HexToAddress(req.To), req.Amount)
		if err != nil {
			return nil, err
		}
		p.to = asset.AssetReference
		p.value = new(big.Int)
		p.data = data
		defaultGas = GasLimitTokenTransfer
	default:
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "asset %s cannot be transferred", asset)
	}

	estimated := params.EstimatedGas
	if estimated == 0 {
		estimated = defaultGas
	}
	p.gasLimit = ApplyGasMultiplier(estimated, a.gasMultiplier)
	return p, nil
}

// planRouterDeposit sends the memo to the router contract at req.To. Native
// deposits carry the amount as value; token deposits carry it in the call.
func (a *Adapter) planRouterDeposit(p *plan, req *chain.BuildRequest, asset caip.AssetID) error {
	router := req.Account.Router
	if err := a.ValidateAddress(router.Vault); err != nil {
		return err
	}

	var assetAddr common.Address
	p.value = new(big.Int)
	switch {
	case asset == a.network.NativeAsset:
		p.value = new(big.Int).Set(req.Amount)
	case asset.IsToken():
		assetAddr = common.HexToAddress(asset.AssetReference)
	default:
		return coreerr.Newf(coreerr.ErrUnsupportedChain, "asset %s cannot be deposited", asset)
	}

	vault := common.HexToAddress(router.Vault)
	var data []byte
	var err error
	if router.Expiry > 0 {
		data, err = EncodeRouterDepositWithExpiry(vault, assetAddr, req.Amount, req.Memo, new(big.Int).SetUint64(router.Expiry))
	} else {
		data, err = EncodeRouterDeposit(vault, assetAddr, req.Amount, req.Memo)
	}
	if err != nil {
		return err
	}
	p.to = req.To
	p.data = data
	return nil
}

// Compile-time interface check
var _ chain.Adapter = (*Adapter)(nil)
