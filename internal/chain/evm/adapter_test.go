package evm

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const (
	testRouter = "0xd37bbe5744d730a1d98d8dc97c42f0ca46ad7146"
	usdcAddr   = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
)

func newTestAdapter(t *testing.T, id caip.ChainID, opts ...Option) *Adapter {
	t.Helper()
	n, err := chain.LookupNetwork(id)
	require.NoError(t, err)
	a, err := NewAdapter(n, opts...)
	require.NoError(t, err)
	return a
}

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func usdc(t *testing.T) caip.AssetID {
	t.Helper()
	asset, err := caip.NewAssetID(caip.EthereumMainnet, caip.AssetNamespaceERC20, usdcAddr)
	require.NoError(t, err)
	return asset
}

func buildAccount(t *testing.T, a *Adapter, req *chain.BuildRequest) *chain.AccountTransaction {
	t.Helper()
	unsigned, err := a.BuildUnsignedTransaction(req)
	require.NoError(t, err)
	assert.Equal(t, chain.FamilyAccount, unsigned.Family())
	tx, ok := unsigned.(*chain.AccountTransaction)
	require.True(t, ok)
	return tx
}

func TestNewAdapter_RejectsNonAccount(t *testing.T) {
	t.Parallel()
	n, err := chain.LookupNetwork(caip.BitcoinMainnet)
	require.NoError(t, err)
	_, err = NewAdapter(n)
	require.ErrorIs(t, err, coreerr.ErrUnsupportedChain)

	custom := chain.Network{ChainID: caip.ChainID{Namespace: caip.NamespaceEIP155, Reference: "devnet"}, Family: chain.FamilyAccount}
	_, err = NewAdapter(custom)
	require.ErrorIs(t, err, coreerr.ErrUnsupportedChain, "the reference must be the numeric chain id")
}

// The EIP-155 example transaction.
func TestAdapter_NativeTransferSigningHash(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t, caip.EthereumMainnet)
	value, ok := new(big.Int).SetString("1000000000000000000", 10)
	require.True(t, ok)

	tx := buildAccount(t, a, &chain.BuildRequest{
		To:     "0x3535353535353535353535353535353535353535",
		Amount: value,
		Account: &chain.AccountParams{
			Nonce:        9,
			EstimatedGas: 14000,
			GasPrice:     gwei(20),
		},
	})

	assert.Equal(t, caip.EthereumMainnet, tx.ChainID)
	assert.Equal(t, uint64(21000), tx.GasLimit)
	assert.Equal(t, "20000000000", tx.GasPrice.String())
	assert.Equal(t, "1", tx.NumericChainID.String())
	assert.Empty(t, tx.Data)
	assert.Equal(t, "daf5a779ae972f972197303d7b574746c7ef83eadac0f2791ad23db92e4c8e53", hex.EncodeToString(tx.SigningHash))
}

func TestAdapter_DefaultGasLimits(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t, caip.EthereumMainnet)

	native, err := a.EstimateFee(&chain.BuildRequest{
		To: testETHAddr, Amount: big.NewInt(1),
		Account: &chain.AccountParams{GasPrice: gwei(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(31500), native.GasLimit)
	assert.Equal(t, "315000000000000", native.Amount.String())
	assert.Equal(t, caip.ETH, native.Asset)

	token, err := a.EstimateFee(&chain.BuildRequest{
		To: testETHAddr, Amount: big.NewInt(1), Asset: usdc(t),
		Account: &chain.AccountParams{GasPrice: gwei(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(97500), token.GasLimit)

	router, err := a.EstimateFee(&chain.BuildRequest{
		To: testRouter, Amount: big.NewInt(1), Memo: "=:BTC.BTC:bc1q",
		Account: &chain.AccountParams{GasPrice: gwei(10), Router: &chain.RouterDeposit{Vault: testVault}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(180000), router.GasLimit)
}

func TestAdapter_TokenTransfer(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t, caip.EthereumMainnet)

	tx := buildAccount(t, a, &chain.BuildRequest{
		From:    "0x9858effd232b4033e47d90003d41ec34ecaeda94",
		To:      testETHAddr,
		Amount:  big.NewInt(1_000_000),
		Asset:   usdc(t),
		Account: &chain.AccountParams{Nonce: 3, GasPrice: gwei(20), Speed: chain.GasSpeedFast},
	})

	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", tx.To, "token sends go to the contract")
	assert.Equal(t, testETHAddr, tx.From)
	assert.Equal(t, "0", tx.Value.String())
	assert.Equal(t, transferHex, hex.EncodeToString(tx.Data))
	assert.Equal(t, "24000000000", tx.GasPrice.String())
	assert.Equal(t, uint64(3), tx.Nonce)
	assert.Len(t, tx.SigningHash, 32)
}

func TestAdapter_RouterDeposit(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t, caip.EthereumMainnet)

	t.Run("native asset", func(t *testing.T) {
		t.Parallel()
		tx := buildAccount(t, a, &chain.BuildRequest{
			To:      testRouter,
			Amount:  bigString(t, testAmount),
			Memo:    testMemo,
			Account: &chain.AccountParams{GasPrice: gwei(20), EstimatedGas: 80000, Router: &chain.RouterDeposit{Vault: testVault}},
		})
		assert.Equal(t, routerDepositHex, hex.EncodeToString(tx.Data))
		assert.Equal(t, testAmount, tx.Value.String())
		assert.Equal(t, uint64(120000), tx.GasLimit)
	})

	t.Run("token asset with expiry", func(t *testing.T) {
		t.Parallel()
		tx := buildAccount(t, a, &chain.BuildRequest{
			To:     testRouter,
			Amount: big.NewInt(5_000_000),
			Asset:  usdc(t),
			Memo:   "=:BTC.BTC:bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
			Account: &chain.AccountParams{
				GasPrice: gwei(20),
				Router:   &chain.RouterDeposit{Vault: testVault, Expiry: 1700000000},
			},
		})
		assert.Equal(t, "0", tx.Value.String())

		call := DecodeKnownCall(tx.Data)
		assert.Equal(t, chain.CallMethodDepositWithExpiry, call.Kind)
		assert.Equal(t, usdcAddr, strings.ToLower(call.Asset.Hex()))
		assert.Equal(t, "5000000", call.Amount.String())
		assert.Equal(t, "1700000000", call.Expiry.String())
	})
}

func TestAdapter_ChainIDOverride(t *testing.T) {
	t.Parallel()
	req := func() *chain.BuildRequest {
		return &chain.BuildRequest{
			To: testETHAddr, Amount: big.NewInt(1),
			Account: &chain.AccountParams{GasPrice: gwei(1)},
		}
	}

	tx := buildAccount(t, newTestAdapter(t, caip.PolygonMainnet), req())
	assert.Equal(t, "137", tx.NumericChainID.String())

	tx = buildAccount(t, newTestAdapter(t, caip.PolygonMainnet, WithChainID(80002)), req())
	assert.Equal(t, "80002", tx.NumericChainID.String())

	r := req()
	r.Account.ChainID = big.NewInt(31337)
	tx = buildAccount(t, newTestAdapter(t, caip.PolygonMainnet), r)
	assert.Equal(t, "31337", tx.NumericChainID.String())
}

func TestAdapter_GasMultiplierOption(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t, caip.EthereumMainnet, WithGasMultiplier(2))
	est, err := a.EstimateFee(&chain.BuildRequest{
		To: testETHAddr, Amount: big.NewInt(1),
		Account: &chain.AccountParams{GasPrice: gwei(1), EstimatedGas: 30000},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(60000), est.GasLimit)
}

func TestAdapter_BuildErrors(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t, caip.EthereumMainnet)
	otherChainToken, err := caip.NewAssetID(caip.PolygonMainnet, caip.AssetNamespaceERC20, usdcAddr)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*chain.BuildRequest)
		want   error
	}{
		{"missing account params", func(r *chain.BuildRequest) { r.Account = nil }, coreerr.ErrMissingParam},
		{"missing gas price", func(r *chain.BuildRequest) { r.Account.GasPrice = nil }, coreerr.ErrMissingParam},
		{"missing recipient", func(r *chain.BuildRequest) { r.To = "" }, coreerr.ErrMissingParam},
		{"bad recipient", func(r *chain.BuildRequest) { r.To = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu" }, coreerr.ErrInvalidAddress},
		{"bad checksum", func(r *chain.BuildRequest) { r.To = "0x9858efFD232B4033E47d90003D41EC34EcaEda94" }, coreerr.ErrInvalidAddress},
		{"bad sender", func(r *chain.BuildRequest) { r.From = "0x1234" }, coreerr.ErrInvalidAddress},
		{"bad speed", func(r *chain.BuildRequest) { r.Account.Speed = "ludicrous" }, coreerr.ErrInvalidGasSpeed},
		{"asset on another chain", func(r *chain.BuildRequest) { r.Asset = otherChainToken }, coreerr.ErrUnsupportedChain},
		{"bad vault", func(r *chain.BuildRequest) { r.Account.Router = &chain.RouterDeposit{Vault: "vault"} }, coreerr.ErrInvalidAddress},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := &chain.BuildRequest{
				To:      testETHAddr,
				Amount:  big.NewInt(1),
				Account: &chain.AccountParams{GasPrice: gwei(1)},
			}
			tt.mutate(req)
			_, err := a.BuildUnsignedTransaction(req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAdapter_ValidateAddress(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t, caip.BNBSmartChain)
	require.NoError(t, a.ValidateAddress(testETHAddr))
	assert.True(t, chain.ParseAddress(a, testVault))
	assert.False(t, chain.ParseAddress(a, "cosmos19rl4cm2hmr8afy4kldpxz3fka4jguq0auqdal4"))
}
