// Package caip parses and formats CAIP-2 chain identifiers and CAIP-19
// asset identifiers against a closed table of supported networks.
package caip

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const (
	chainSeparator = ":"
	assetSeparator = "/"
)

//nolint:gochecknoglobals // compiled once, read-only
var (
	namespacePattern    = regexp.MustCompile(`^[-a-z0-9]{3,8}$`)
	cosmosRefPattern    = regexp.MustCompile(`^[-a-zA-Z0-9]{1,32}$`)
	bip122RefPattern    = regexp.MustCompile(`^[0-9a-f]{32}$`)
	decimalPattern      = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
	hexAddressPattern   = regexp.MustCompile(`^0x[0-9a-f]{40}$`)
	ibcHashPattern      = regexp.MustCompile(`^[0-9a-f]{64}$`)
	denomPattern        = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/:._-]{1,127}$`)
	bech32AddrPattern   = regexp.MustCompile(`^[a-z]{1,83}1[02-9ac-hj-np-z]{6,}$`)
	assetNamespaceShape = regexp.MustCompile(`^[-a-z0-9]{3,8}$`)
)

// ChainID is a CAIP-2 chain identifier.
type ChainID struct {
	Namespace string
	Reference string
}

// AssetID is a CAIP-19 asset identifier.
type AssetID struct {
	ChainID        ChainID
	AssetNamespace string
	AssetReference string
}

// String formats the chain identifier as namespace:reference.
func (c ChainID) String() string {
	if c.IsZero() {
		return ""
	}
	return c.Namespace + chainSeparator + c.Reference
}

// IsZero reports whether the identifier is unset.
func (c ChainID) IsZero() bool {
	return c.Namespace == "" && c.Reference == ""
}

// Name returns the human readable network name from the lookup table.
func (c ChainID) Name() string {
	if refs, ok := knownChains[c.Namespace]; ok {
		return refs[c.Reference]
	}
	return ""
}

// NumericReference returns the reference as an integer for eip155 chains.
func (c ChainID) NumericReference() (uint64, bool) {
	if c.Namespace != NamespaceEIP155 {
		return 0, false
	}
	n, err := strconv.ParseUint(c.Reference, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalText implements encoding.TextMarshaler.
func (c ChainID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the
// zero value.
func (c *ChainID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = ChainID{}
		return nil
	}
	parsed, err := ParseChainID(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// String formats the asset identifier as chainId/assetNamespace:assetReference.
func (a AssetID) String() string {
	if a.ChainID.IsZero() {
		return ""
	}
	return a.ChainID.String() + assetSeparator + a.AssetNamespace + chainSeparator + a.AssetReference
}

// IsZero reports whether the identifier is unset.
func (a AssetID) IsZero() bool {
	return a.ChainID.IsZero() && a.AssetNamespace == "" && a.AssetReference == ""
}

// IsNative reports whether the asset is the chain's fee asset.
func (a AssetID) IsNative() bool {
	return a.AssetNamespace == AssetNamespaceSLIP44
}

// IsToken reports whether the asset is a fungible contract token.
func (a AssetID) IsToken() bool {
	switch a.AssetNamespace {
	case AssetNamespaceERC20, AssetNamespaceBEP20, AssetNamespaceCW20:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (a AssetID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AssetID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = AssetID{}
		return nil
	}
	parsed, err := ParseAssetID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseChainID parses a CAIP-2 chain identifier.
func ParseChainID(s string) (ChainID, error) {
	namespace, reference, ok := strings.Cut(s, chainSeparator)
	if !ok {
		return ChainID{}, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrParse, "chain id %q is missing the %q separator", s, chainSeparator),
			map[string]string{"input": s},
		)
	}
	if namespace == "" || reference == "" {
		return ChainID{}, coreerr.Newf(coreerr.ErrParse, "chain id %q has an empty namespace or reference", s)
	}
	if !namespacePattern.MatchString(namespace) {
		return ChainID{}, coreerr.Newf(coreerr.ErrParse, "chain namespace %q is malformed", namespace)
	}

	refs, known := knownChains[namespace]
	if !known {
		err := coreerr.Newf(coreerr.ErrParse, "unknown chain namespace %q", namespace)
		if suggestion := suggestNamespace(namespace); suggestion != "" {
			return ChainID{}, coreerr.WithSuggestion(err, "did you mean "+suggestion+"?")
		}
		return ChainID{}, err
	}

	switch namespace {
	case NamespaceEIP155:
		if !decimalPattern.MatchString(reference) {
			return ChainID{}, coreerr.Newf(coreerr.ErrParse, "eip155 reference %q must be a decimal chain id", reference)
		}
	case NamespaceBIP122:
		reference = strings.ToLower(reference)
		if !bip122RefPattern.MatchString(reference) {
			return ChainID{}, coreerr.Newf(coreerr.ErrParse, "bip122 reference %q must be 32 hex characters of a genesis hash", reference)
		}
		if _, ok := refs[reference]; !ok {
			return ChainID{}, coreerr.Newf(coreerr.ErrParse, "bip122 reference %q does not match a known genesis hash", reference)
		}
	case NamespaceCosmos:
		if !cosmosRefPattern.MatchString(reference) {
			return ChainID{}, coreerr.Newf(coreerr.ErrParse, "cosmos reference %q is malformed", reference)
		}
	}

	id := ChainID{Namespace: namespace, Reference: reference}
	if !IsKnown(id) {
		err := coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrUnsupportedChain, "chain %s is not supported", id),
			map[string]string{"namespace": namespace, "reference": reference},
		)
		return ChainID{}, coreerr.WithSuggestion(err, "supported "+namespace+" chains: "+strings.Join(supportedIn(namespace), ", "))
	}
	return id, nil
}

// supportedIn lists the known chains of one namespace in sorted order.
func supportedIn(namespace string) []string {
	var out []string
	for _, c := range KnownChains() {
		if c.Namespace == namespace {
			out = append(out, c.String())
		}
	}
	return out
}

// NewChainID validates and builds a chain identifier from its parts.
func NewChainID(namespace, reference string) (ChainID, error) {
	return ParseChainID(namespace + chainSeparator + reference)
}

// ParseAssetID parses a CAIP-19 asset identifier. Hex based references are
// lower-cased.
func ParseAssetID(s string) (AssetID, error) {
	chainPart, assetPart, ok := strings.Cut(s, assetSeparator)
	if !ok {
		return AssetID{}, coreerr.Newf(coreerr.ErrParse, "asset id %q is missing the %q separator", s, assetSeparator)
	}
	chainID, err := ParseChainID(chainPart)
	if err != nil {
		return AssetID{}, err
	}

	namespace, reference, ok := strings.Cut(assetPart, chainSeparator)
	if !ok {
		return AssetID{}, coreerr.Newf(coreerr.ErrParse, "asset %q is missing the %q separator", assetPart, chainSeparator)
	}
	return NewAssetID(chainID, namespace, reference)
}

// NewAssetID validates and builds an asset identifier on a parsed chain.
func NewAssetID(chainID ChainID, namespace, reference string) (AssetID, error) {
	if namespace == "" || reference == "" {
		return AssetID{}, coreerr.Newf(coreerr.ErrParse, "asset namespace and reference must not be empty")
	}
	if !assetNamespaceShape.MatchString(namespace) {
		return AssetID{}, coreerr.Newf(coreerr.ErrParse, "asset namespace %q is malformed", namespace)
	}

	allowed, known := assetNamespaces[namespace]
	if !known {
		return AssetID{}, coreerr.Newf(coreerr.ErrParse, "unknown asset namespace %q", namespace)
	}
	if !allowed[chainID.Namespace] {
		return AssetID{}, coreerr.Newf(coreerr.ErrUnsupportedChain,
			"asset namespace %q is not supported on %s chains", namespace, chainID.Namespace)
	}

	reference, err := normalizeAssetReference(namespace, reference)
	if err != nil {
		return AssetID{}, err
	}

	return AssetID{ChainID: chainID, AssetNamespace: namespace, AssetReference: reference}, nil
}

// Normalize parses and re-formats an identifier, returning its canonical form.
func Normalize(s string) (string, error) {
	if strings.Contains(s, assetSeparator) {
		a, err := ParseAssetID(s)
		if err != nil {
			return "", err
		}
		return a.String(), nil
	}
	c, err := ParseChainID(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func normalizeAssetReference(namespace, reference string) (string, error) {
	var pattern *regexp.Regexp
	switch namespace {
	case AssetNamespaceSLIP44:
		pattern = decimalPattern
	case AssetNamespaceERC20, AssetNamespaceBEP20, AssetNamespaceERC721, AssetNamespaceERC1155:
		reference = strings.ToLower(reference)
		pattern = hexAddressPattern
	case AssetNamespaceIBC:
		reference = strings.ToLower(reference)
		pattern = ibcHashPattern
	case AssetNamespaceCW20:
		reference = strings.ToLower(reference)
		pattern = bech32AddrPattern
	case AssetNamespaceNative:
		pattern = denomPattern
	}
	if pattern != nil && !pattern.MatchString(reference) {
		return "", coreerr.Newf(coreerr.ErrParse, "%s reference %q is malformed", namespace, reference)
	}
	return reference, nil
}

func suggestNamespace(namespace string) string {
	best, bestDistance := "", 3
	for _, candidate := range Namespaces() {
		if d := levenshtein.ComputeDistance(namespace, candidate); d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}
