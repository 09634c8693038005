package evm

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/chaincore/internal/bip44"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// Test vectors from EIP-55: https://eips.ethereum.org/EIPS/eip-55
//
//nolint:gochecknoglobals // Test data
var eip55TestVectors = []struct {
	name     string
	address  string
	expected string
}{
	{"all caps", "0x52908400098527886E0F7030069857D2E4169EE7", "0x52908400098527886E0F7030069857D2E4169EE7"},
	{"all lower", "0x8617e340b3d01fa5f11f306f4090fd50e238070d", "0x8617E340B3D01FA5F11F306F4090FD50E238070D"},
	{"mixed case 1", "0xde709f2102306220921060314715629080e2fb77", "0xde709f2102306220921060314715629080e2fb77"},
	{"EIP-55 vector", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
	{"EIP-55 vector 2", "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"},
	{"EIP-55 vector 3", "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"},
	{"EIP-55 vector 4", "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb", "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"},
	{"vault", "0x78e4a51f9b7d8a5a9bd8d4f0c56a0bde0ea4dff1", testVault},
}

func TestToChecksumAddress(t *testing.T) {
	t.Parallel()
	for _, tc := range eip55TestVectors {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ToChecksumAddress(tc.address))
		})
	}
	assert.Equal(t, "not-an-address", ToChecksumAddress("not-an-address"))
	assert.Equal(t, "9858effd232b4033e47d90003d41ec34ecaeda94", ToChecksumAddress("9858effd232b4033e47d90003d41ec34ecaeda94"),
		"addresses without the 0x prefix are not accepted")
}

func TestIsValidAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		address string
		valid   bool
	}{
		{testETHAddr, true},
		{"0x0000000000000000000000000000000000000000", true},
		{"9858EfFD232B4033E47d90003D41EC34EcaEda94", false},
		{"0x9858EfFD232B4033E47d90003D41EC34EcaEda9", false},
		{"0x9858EfFD232B4033E47d90003D41EC34EcaEda9g", false},
		{"0X9858EfFD232B4033E47d90003D41EC34EcaEda94", false},
		{"0x9858EfFD232B4033E47d90003D41EC34EcaEda9400", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidAddress(tt.address), tt.address)
	}
}

func TestValidateChecksumAddress(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateChecksumAddress(testETHAddr))
	require.NoError(t, ValidateChecksumAddress("0x9858effd232b4033e47d90003d41ec34ecaeda94"))

	err := ValidateChecksumAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda9A")
	require.ErrorIs(t, err, coreerr.ErrInvalidAddress)

	err = ValidateChecksumAddress("0x9858efFD232B4033E47d90003D41EC34EcaEda94")
	require.ErrorIs(t, err, coreerr.ErrInvalidAddress)
	expected, ok := coreerr.DetailOf(err, "expected")
	require.True(t, ok)
	assert.Equal(t, testETHAddr, expected)
}

func TestAddressFromPublicKey(t *testing.T) {
	t.Parallel()
	seed := bip39.NewSeed("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	p := bip44.Params{Purpose: 44, CoinType: 60}
	account, err := bip44.AccountKey(master, p)
	require.NoError(t, err)
	pub, err := bip44.ChildPublicKey(account.String(), p)
	require.NoError(t, err)

	assert.Equal(t, testETHAddr, AddressFromPublicKey(pub))
	assert.Len(t, hex.EncodeToString(pub.SerializeCompressed()), 66)
}
