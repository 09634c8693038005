package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/chaincore/internal/bip44"
	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	"github.com/mrz1836/chaincore/internal/output"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var chainsFamily string

// chainsCmd lists the supported networks.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var chainsCmd = &cobra.Command{
	Use:     "chains",
	Short:   "List supported chains",
	GroupID: "chain",
	Long: `List every chain the registry can build for and parse, with its family,
native asset and the derivation path of its first account.`,
	Example: `  chaincore chains
  chaincore chains --family cosmos
  chaincore chains -o json`,
	Args: cobra.NoArgs,
	RunE: runChains,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(chainsCmd)
	chainsCmd.Flags().StringVar(&chainsFamily, "family", "", "only list one family: utxo, account, cosmos")
}

// chainInfo is one row of the chain listing.
type chainInfo struct {
	ChainID     string `json:"chain_id"`
	Name        string `json:"name"`
	Family      string `json:"family"`
	Symbol      string `json:"symbol"`
	Decimals    int32  `json:"decimals"`
	NativeAsset string `json:"native_asset"`
	AccountPath string `json:"account_path"`
}

type chainList []chainInfo

// RenderText implements output.TextRenderer.
func (l chainList) RenderText(w io.Writer) error {
	table := output.NewTable("CHAIN", "NAME", "FAMILY", "SYMBOL", "DECIMALS", "PATH")
	table.AlignRight(4)
	for _, c := range l {
		table.AddRow(c.ChainID, c.Name, c.Family, c.Symbol, strconv.Itoa(int(c.Decimals)), c.AccountPath)
	}
	return table.Render(w)
}

func runChains(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	networks := chain.Networks()
	if chainsFamily != "" {
		family := chain.Family(strings.ToLower(chainsFamily))
		if !family.IsValid() {
			return coreerr.WithDetails(
				coreerr.Newf(coreerr.ErrInvalidInput, "unknown family %q", chainsFamily),
				map[string]string{"valid": "utxo, account, cosmos"},
			)
		}
		networks = chain.NetworksByFamily(family)
	}

	list := make(chainList, 0, len(networks))
	for _, n := range networks {
		if !cc.Registry.IsSupported(n.ChainID) {
			continue
		}
		list = append(list, chainInfo{
			ChainID:     n.ChainID.String(),
			Name:        n.ChainID.Name(),
			Family:      n.Family.String(),
			Symbol:      n.Symbol,
			Decimals:    n.Decimals,
			NativeAsset: n.NativeAsset.String(),
			AccountPath: bip44.ToRootDerivationPath(n.Path(0, false, 0)),
		})
	}
	cc.Log.Debug("listing %d chains", len(list))
	return cc.Fmt.Print(list)
}

// parseChainFlag parses a --chain value and points at the chain listing on
// failure.
func parseChainFlag(value string) (caip.ChainID, error) {
	if strings.TrimSpace(value) == "" {
		return caip.ChainID{}, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrMissingParam, "--chain is required"),
			map[string]string{"flag": "chain"},
		)
	}
	id, err := caip.ParseChainID(strings.TrimSpace(value))
	if err != nil {
		var ce *coreerr.CoreError
		if errors.As(err, &ce) && ce.Suggestion != "" {
			return caip.ChainID{}, err
		}
		return caip.ChainID{}, coreerr.WithSuggestion(err, "Run 'chaincore chains' to list supported chain ids")
	}
	return id, nil
}
