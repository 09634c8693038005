package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/chaincore/internal/bip44"
	"github.com/mrz1836/chaincore/internal/chain"
	"github.com/mrz1836/chaincore/internal/output"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	pathChain    string
	pathPurpose  uint32
	pathCoinType uint32
	pathAccount  uint32
	pathChange   bool
	pathIndex    uint32
)

// pathCmd is the parent command for BIP44 path operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pathCmd = &cobra.Command{
	Use:     "path",
	Short:   "Parse and format BIP44 derivation paths",
	GroupID: "codec",
	Long: `Convert between derivation path strings of the form
m/purpose'/coinType'/account'/change/index and their typed fields.`,
}

// pathParseCmd parses a path string.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pathParseCmd = &cobra.Command{
	Use:   "parse <path>",
	Short: "Parse a derivation path into its fields",
	Long: `Parse a five segment derivation path into its fields.

Hardening markers (' or h) are accepted on any segment. The change segment
must be 0 or 1.`,
	Example: `  chaincore path parse "m/84'/0'/0'/0/0"
  chaincore path parse m/44h/60h/0h/0/3 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runPathParse,
}

// pathFormatCmd renders a path from flags.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pathFormatCmd = &cobra.Command{
	Use:   "format",
	Short: "Format a derivation path from its fields",
	Long: `Render a derivation path from typed fields.

Purpose, coin type and account are required unless --chain supplies the
network's default purpose and coin type. Change and index default to 0.`,
	Example: `  chaincore path format --purpose 44 --coin-type 60 --account 0
  chaincore path format --chain bip122:000000000019d6689c085ae165831e93 --account 1 --index 7
  chaincore path format --chain cosmos:cosmoshub-4 --account 0 --change`,
	Args: cobra.NoArgs,
	RunE: runPathFormat,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(pathCmd)
	pathCmd.AddCommand(pathParseCmd)
	pathCmd.AddCommand(pathFormatCmd)

	pathFormatCmd.Flags().StringVar(&pathChain, "chain", "", "CAIP-2 chain supplying the default purpose and coin type")
	pathFormatCmd.Flags().Uint32Var(&pathPurpose, "purpose", 0, "purpose segment, e.g. 44 or 84")
	pathFormatCmd.Flags().Uint32Var(&pathCoinType, "coin-type", 0, "SLIP-44 coin type")
	pathFormatCmd.Flags().Uint32Var(&pathAccount, "account", 0, "account number")
	pathFormatCmd.Flags().BoolVar(&pathChange, "change", false, "use the change chain")
	pathFormatCmd.Flags().Uint32Var(&pathIndex, "index", 0, "address index")
}

// pathResult is the typed and rendered form of a path.
type pathResult struct {
	bip44.Params

	Path     string `json:"path"`
	RootPath string `json:"root_path"`
}

func newPathResult(p bip44.Params) pathResult {
	return pathResult{Params: p, Path: bip44.ToPath(p), RootPath: bip44.ToRootDerivationPath(p)}
}

// RenderText implements output.TextRenderer.
func (r pathResult) RenderText(w io.Writer) error {
	change := "0"
	if r.IsChange {
		change = "1"
	}
	return output.WriteFields(w,
		"Path:", r.Path,
		"Account Path:", r.RootPath,
		"Purpose:", strconv.FormatUint(uint64(r.Purpose), 10),
		"Coin Type:", strconv.FormatUint(uint64(r.CoinType), 10),
		"Account:", strconv.FormatUint(uint64(r.AccountNumber), 10),
		"Change:", change,
		"Index:", strconv.FormatUint(uint64(r.Index), 10),
	)
}

func runPathParse(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	params, err := bip44.FromPath(args[0])
	if err != nil {
		return coreerr.WithSuggestion(err, "Use the form m/purpose'/coinType'/account'/change/index")
	}
	return cc.Fmt.Print(newPathResult(params))
}

func runPathFormat(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	partial, err := partialFromFlags(cmd)
	if err != nil {
		return err
	}
	params, err := partial.Resolve()
	if err != nil {
		return coreerr.WithSuggestion(err, "Pass --purpose and --coin-type, or --chain, together with --account")
	}
	return cc.Fmt.Print(newPathResult(params))
}

// partialFromFlags collects only the flags the user actually set, seeded with
// the network defaults when --chain is given.
func partialFromFlags(cmd *cobra.Command) (bip44.Partial, error) {
	var p bip44.Partial
	flags := cmd.Flags()

	if flags.Changed("chain") {
		id, err := parseChainFlag(pathChain)
		if err != nil {
			return bip44.Partial{}, err
		}
		n, err := chain.LookupNetwork(id)
		if err != nil {
			return bip44.Partial{}, err
		}
		p.Purpose = &n.Purpose
		p.CoinType = &n.CoinType
	}
	if flags.Changed("purpose") {
		p.Purpose = &pathPurpose
	}
	if flags.Changed("coin-type") {
		p.CoinType = &pathCoinType
	}
	if flags.Changed("account") {
		p.AccountNumber = &pathAccount
	}
	if flags.Changed("change") {
		p.IsChange = &pathChange
	}
	if flags.Changed("index") {
		p.Index = &pathIndex
	}
	return p, nil
}
