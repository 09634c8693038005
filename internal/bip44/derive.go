package bip44

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// AccountKey derives the hardened account node m/purpose'/coinType'/account'
// from a master key and returns its public (neutered) form.
func AccountKey(master *hdkeychain.ExtendedKey, p Params) (*hdkeychain.ExtendedKey, error) {
	key := master
	for _, segment := range []uint32{p.Purpose, p.CoinType, p.AccountNumber} {
		child, err := key.Derive(hdkeychain.HardenedKeyStart + segment)
		if err != nil {
			return nil, coreerr.WithCause(coreerr.ErrInvalidPath, err)
		}
		key = child
	}
	return key.Neuter()
}

// ChildPublicKey derives the change/index public key below an account
// extended public key. Only the two non-hardened segments of p are used.
func ChildPublicKey(accountXPub string, p Params) (*btcec.PublicKey, error) {
	account, err := hdkeychain.NewKeyFromString(accountXPub)
	if err != nil {
		return nil, coreerr.WithDetails(
			coreerr.WithCause(coreerr.ErrInvalidFormat, err),
			map[string]string{"field": "xpub"},
		)
	}
	if account.IsPrivate() {
		account, err = account.Neuter()
		if err != nil {
			return nil, coreerr.WithCause(coreerr.ErrInvalidFormat, err)
		}
	}

	var change uint32
	if p.IsChange {
		change = 1
	}
	branch, err := account.Derive(change)
	if err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidPath, err)
	}
	child, err := branch.Derive(p.Index)
	if err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidPath, err)
	}
	return child.ECPubKey()
}
