// Package bip44 formats and parses hierarchical deterministic account paths
// of the form m/purpose'/coinType'/account'/change/index.
package bip44

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const (
	rootMarker   = "m/"
	hardenedMark = "'"
	segmentCount = 5
)

// Common purposes.
const (
	PurposeLegacy       uint32 = 44
	PurposeNestedSegwit uint32 = 49
	PurposeNativeSegwit uint32 = 84
)

// Params are the five typed fields of an account path.
type Params struct {
	Purpose       uint32 `json:"purpose"`
	CoinType      uint32 `json:"coin_type"`
	AccountNumber uint32 `json:"account_number"`
	IsChange      bool   `json:"is_change"`
	Index         uint32 `json:"index"`
}

// Partial holds user supplied path fields, any of which may be absent.
type Partial struct {
	Purpose       *uint32
	CoinType      *uint32
	AccountNumber *uint32
	IsChange      *bool
	Index         *uint32
}

// Resolve fills defaults and checks mandatory fields.
// Purpose, coin type and account number are required; change and index
// default to false and 0.
func (p Partial) Resolve() (Params, error) {
	switch {
	case p.Purpose == nil:
		return Params{}, missing("purpose")
	case p.CoinType == nil:
		return Params{}, missing("coinType")
	case p.AccountNumber == nil:
		return Params{}, missing("accountNumber")
	}

	out := Params{
		Purpose:       *p.Purpose,
		CoinType:      *p.CoinType,
		AccountNumber: *p.AccountNumber,
	}
	if p.IsChange != nil {
		out.IsChange = *p.IsChange
	}
	if p.Index != nil {
		out.Index = *p.Index
	}
	return out, nil
}

func missing(field string) error {
	return coreerr.WithDetails(
		coreerr.Newf(coreerr.ErrMissingParam, "derivation field %s is required", field),
		map[string]string{"field": field},
	)
}

// ToPath renders the full five segment path.
func ToPath(p Params) string {
	change := 0
	if p.IsChange {
		change = 1
	}
	return fmt.Sprintf("%s/%d/%d", ToRootDerivationPath(p), change, p.Index)
}

// ToRootDerivationPath renders only the three hardened account segments.
func ToRootDerivationPath(p Params) string {
	return fmt.Sprintf("m/%d'/%d'/%d'", p.Purpose, p.CoinType, p.AccountNumber)
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return ToPath(p)
}

// FromPath parses a five segment path.
// Hardening markers (' or h) are accepted on any segment and discarded.
func FromPath(path string) (Params, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(path), rootMarker)
	if !ok {
		return Params{}, coreerr.Newf(coreerr.ErrParse, "derivation path %q must start with %q", path, rootMarker)
	}

	segments := strings.Split(rest, "/")
	if len(segments) != segmentCount {
		return Params{}, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidPath, "derivation path %q has %d segments, expected %d", path, len(segments), segmentCount),
			map[string]string{
				"expected": strconv.Itoa(segmentCount),
				"actual":   strconv.Itoa(len(segments)),
			},
		)
	}

	values := make([]uint32, segmentCount)
	for i, seg := range segments {
		v, err := parseSegment(seg)
		if err != nil {
			return Params{}, coreerr.Wrap(err, "segment %d of %q", i+1, path)
		}
		values[i] = v
	}

	if values[3] > 1 {
		return Params{}, coreerr.Newf(coreerr.ErrParse, "change segment of %q must be 0 or 1, got %d", path, values[3])
	}

	return Params{
		Purpose:       values[0],
		CoinType:      values[1],
		AccountNumber: values[2],
		IsChange:      values[3] == 1,
		Index:         values[4],
	}, nil
}

func parseSegment(seg string) (uint32, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(seg, hardenedMark), "h")
	if trimmed == "" {
		return 0, coreerr.Newf(coreerr.ErrParse, "empty segment")
	}
	v, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, coreerr.Newf(coreerr.ErrParse, "segment %q is not a number", seg)
	}
	if v >= hdkeychain.HardenedKeyStart {
		return 0, coreerr.Newf(coreerr.ErrParse, "segment %q exceeds the hardened offset", seg)
	}
	return uint32(v), nil
}
