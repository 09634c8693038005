// Package evm implements construction and normalization for EVM account
// chains: call-data encoding, legacy transaction assembly and indexer record
// parsing.
package evm

import (
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// IsValidAddress reports whether address is 0x followed by 40 hex digits.
// The checksum is not checked.
func IsValidAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// ToChecksumAddress returns the EIP-55 form of address, or address itself
// when it is not a valid EVM address.
func ToChecksumAddress(address string) string {
	if !IsValidAddress(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}

// ValidateChecksumAddress accepts single-case addresses as unchecksummed;
// mixed case must match the EIP-55 checksum exactly.
func ValidateChecksumAddress(address string) error {
	if !IsValidAddress(address) {
		return coreerr.WithDetails(coreerr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}

	digits := address[2:]
	if digits == strings.ToLower(digits) || digits == strings.ToUpper(digits) {
		return nil
	}

	if expected := common.HexToAddress(address).Hex(); address != expected {
		return coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidAddress, "address checksum mismatch"),
			map[string]string{
				"expected": expected,
				"actual":   address,
			},
		)
	}
	return nil
}

// AddressFromPublicKey returns the checksummed address of a secp256k1 key.
func AddressFromPublicKey(pub *btcec.PublicKey) string {
	return crypto.PubkeyToAddress(*pub.ToECDSA()).Hex()
}

// sameAddress compares two addresses ignoring case.
func sameAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
