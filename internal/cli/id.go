package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	"github.com/mrz1836/chaincore/internal/output"
)

// idCmd is the parent command for CAIP identifier operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var idCmd = &cobra.Command{
	Use:     "id",
	Short:   "Parse and normalize CAIP identifiers",
	GroupID: "codec",
	Long: `Work with CAIP-2 chain identifiers (namespace:reference) and CAIP-19 asset
identifiers (chainId/assetNamespace:assetReference).

Hex and bech32 references are lower-cased so two spellings of one asset
always compare equal.`,
}

// idParseCmd parses one identifier and describes its parts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var idParseCmd = &cobra.Command{
	Use:   "parse <identifier>",
	Short: "Parse a chain or asset identifier",
	Long: `Parse a CAIP-2 or CAIP-19 identifier and show its parts.

An identifier containing "/" is read as an asset id, anything else as a
chain id. Supported chains also show their family and native symbol.`,
	Example: `  chaincore id parse eip155:1
  chaincore id parse cosmos:cosmoshub-4/slip44:118
  chaincore id parse eip155:1/erc20:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runIDParse,
}

// idNormalizeCmd prints the canonical form of each identifier.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var idNormalizeCmd = &cobra.Command{
	Use:   "normalize <identifier>...",
	Short: "Print the canonical form of identifiers",
	Long: `Parse each identifier and print its canonical form, one per line.

The first malformed identifier stops the command with a parse error.`,
	Example: `  chaincore id normalize eip155:1/erc20:0xA0B8...EB48
  chaincore id normalize bip122:000000000019d6689c085ae165831e93 eip155:137`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIDNormalize,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(idCmd)
	idCmd.AddCommand(idParseCmd)
	idCmd.AddCommand(idNormalizeCmd)
}

// identifierResult describes a parsed identifier.
type identifierResult struct {
	Canonical      string `json:"canonical"`
	Kind           string `json:"kind"`
	Namespace      string `json:"namespace"`
	Reference      string `json:"reference"`
	Name           string `json:"name,omitempty"`
	AssetNamespace string `json:"asset_namespace,omitempty"`
	AssetReference string `json:"asset_reference,omitempty"`
	Native         bool   `json:"native,omitempty"`
	Token          bool   `json:"token,omitempty"`
	Family         string `json:"family,omitempty"`
	Symbol         string `json:"symbol,omitempty"`
	Decimals       *int32 `json:"decimals,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r identifierResult) RenderText(w io.Writer) error {
	pairs := []string{
		"Identifier:", r.Canonical,
		"Kind:", r.Kind,
		"Namespace:", r.Namespace,
		"Reference:", r.Reference,
	}
	if r.Name != "" {
		pairs = append(pairs, "Name:", r.Name)
	}
	if r.Kind == "asset" {
		pairs = append(pairs, "Asset Namespace:", r.AssetNamespace, "Asset Reference:", r.AssetReference, "Asset Type:", assetType(r))
	}
	if r.Family != "" {
		pairs = append(pairs, "Family:", r.Family, "Symbol:", r.Symbol)
	}
	return output.WriteFields(w, pairs...)
}

func assetType(r identifierResult) string {
	switch {
	case r.Native:
		return "native"
	case r.Token:
		return "token"
	default:
		return r.AssetNamespace
	}
}

func runIDParse(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	result, err := describeIdentifier(args[0])
	if err != nil {
		return err
	}
	return cc.Fmt.Print(result)
}

func runIDNormalize(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	canonical := make([]string, 0, len(args))
	for _, arg := range args {
		c, err := caip.Normalize(strings.TrimSpace(arg))
		if err != nil {
			return err
		}
		canonical = append(canonical, c)
	}
	return cc.Fmt.List(canonical)
}

// describeIdentifier parses s as an asset id when it carries an asset part
// and as a chain id otherwise.
func describeIdentifier(s string) (identifierResult, error) {
	s = strings.TrimSpace(s)

	var (
		result  identifierResult
		chainID caip.ChainID
	)
	if strings.Contains(s, "/") {
		asset, err := caip.ParseAssetID(s)
		if err != nil {
			return identifierResult{}, err
		}
		chainID = asset.ChainID
		result = identifierResult{
			Canonical:      asset.String(),
			Kind:           "asset",
			AssetNamespace: asset.AssetNamespace,
			AssetReference: asset.AssetReference,
			Native:         asset.IsNative(),
			Token:          asset.IsToken(),
		}
	} else {
		parsed, err := caip.ParseChainID(s)
		if err != nil {
			return identifierResult{}, err
		}
		chainID = parsed
		result = identifierResult{Canonical: parsed.String(), Kind: "chain"}
	}

	result.Namespace = chainID.Namespace
	result.Reference = chainID.Reference
	result.Name = chainID.Name()
	if n, err := chain.LookupNetwork(chainID); err == nil {
		result.Family = n.Family.String()
		result.Symbol = n.Symbol
		decimals := n.Decimals
		result.Decimals = &decimals
	}
	return result, nil
}
