package bip44

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func u32(v uint32) *uint32 { return &v }

func TestFromPath_NativeSegwit(t *testing.T) {
	t.Parallel()
	p, err := FromPath("m/84'/0'/0'/0/0")
	require.NoError(t, err)
	assert.Equal(t, Params{Purpose: 84, CoinType: 0, AccountNumber: 0, IsChange: false, Index: 0}, p)
	assert.Equal(t, "m/84'/0'/0'/0/0", ToPath(p))
}

func TestPathRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []Params{
		{Purpose: 44, CoinType: 60, AccountNumber: 0, IsChange: false, Index: 0},
		{Purpose: 44, CoinType: 118, AccountNumber: 3, IsChange: true, Index: 17},
		{Purpose: 84, CoinType: 2, AccountNumber: 1, IsChange: true, Index: 2147483647},
		{Purpose: 44, CoinType: 931, AccountNumber: 0, IsChange: false, Index: 9},
		{Purpose: 49, CoinType: 0, AccountNumber: 12, IsChange: false, Index: 400},
	}
	for _, p := range tests {
		p := p
		t.Run(ToPath(p), func(t *testing.T) {
			t.Parallel()
			got, err := FromPath(ToPath(p))
			require.NoError(t, err)
			assert.Equal(t, p, got)
		})
	}
}

func TestToRootDerivationPath(t *testing.T) {
	t.Parallel()
	p := Params{Purpose: 44, CoinType: 60, AccountNumber: 2, IsChange: true, Index: 5}
	assert.Equal(t, "m/44'/60'/2'", ToRootDerivationPath(p))
	assert.Equal(t, "m/44'/60'/2'/1/5", p.String())
}

func TestFromPath_SegmentCount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path   string
		actual string
	}{
		{"m/44'/60'/0'/0", "4"},
		{"m/44'/60'/0'/0/0/1", "6"},
		{"m/44'", "1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			_, err := FromPath(tt.path)
			require.ErrorIs(t, err, coreerr.ErrInvalidPath)

			actual, ok := coreerr.DetailOf(err, "actual")
			require.True(t, ok)
			assert.Equal(t, tt.actual, actual)

			expected, _ := coreerr.DetailOf(err, "expected")
			assert.Equal(t, "5", expected)
		})
	}
}

func TestFromPath_Malformed(t *testing.T) {
	t.Parallel()
	tests := []string{
		"44'/60'/0'/0/0",
		"m/44'/x'/0'/0/0",
		"m/44'/60'/0'/2/0",
		"m/44'/60'//0/0",
		"m/44'/60'/0'/0/2147483648",
	}
	for _, path := range tests {
		path := path
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			_, err := FromPath(path)
			require.ErrorIs(t, err, coreerr.ErrParse)
		})
	}
}

func TestFromPath_AcceptsHMarker(t *testing.T) {
	t.Parallel()
	p, err := FromPath("m/44h/118h/0h/1/3")
	require.NoError(t, err)
	assert.Equal(t, Params{Purpose: 44, CoinType: 118, IsChange: true, Index: 3}, p)
}

func TestPartialResolve(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		p, err := Partial{Purpose: u32(44), CoinType: u32(60), AccountNumber: u32(1)}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, Params{Purpose: 44, CoinType: 60, AccountNumber: 1}, p)
	})

	t.Run("explicit change and index", func(t *testing.T) {
		t.Parallel()
		change := true
		p, err := Partial{Purpose: u32(84), CoinType: u32(0), AccountNumber: u32(0), IsChange: &change, Index: u32(7)}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, "m/84'/0'/0'/1/7", ToPath(p))
	})

	missing := []struct {
		name  string
		in    Partial
		field string
	}{
		{"purpose", Partial{CoinType: u32(60), AccountNumber: u32(0)}, "purpose"},
		{"coin type", Partial{Purpose: u32(44), AccountNumber: u32(0)}, "coinType"},
		{"account", Partial{Purpose: u32(44), CoinType: u32(60)}, "accountNumber"},
	}
	for _, tt := range missing {
		tt := tt
		t.Run("missing "+tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.in.Resolve()
			require.ErrorIs(t, err, coreerr.ErrMissingParam)
			field, _ := coreerr.DetailOf(err, "field")
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestChildPublicKey(t *testing.T) {
	t.Parallel()
	seed := bip39.NewSeed(testMnemonic, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	p := Params{Purpose: 84, CoinType: 0, AccountNumber: 0}
	account, err := AccountKey(master, p)
	require.NoError(t, err)
	assert.False(t, account.IsPrivate())

	pub, err := ChildPublicKey(account.String(), p)
	require.NoError(t, err)
	assert.Equal(t, "0330d54fd0dd420a6e5f8d3624f5f3482cae350f79d5f0753bf5beef9c2d91af3c",
		hex.EncodeToString(pub.SerializeCompressed()))

	changePub, err := ChildPublicKey(account.String(), Params{IsChange: true})
	require.NoError(t, err)
	assert.NotEqual(t, pub.SerializeCompressed(), changePub.SerializeCompressed())
}

func TestChildPublicKey_InvalidXPub(t *testing.T) {
	t.Parallel()
	_, err := ChildPublicKey("xpub-not-really", Params{})
	require.ErrorIs(t, err, coreerr.ErrInvalidFormat)
}
