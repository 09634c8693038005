package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/chaincore/internal/chain"
	"github.com/mrz1836/chaincore/internal/output"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const maxDeriveCount = 1000

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	addressChain   string
	addressXPub    string
	addressAccount uint32
	addressChange  bool
	addressIndex   uint32
	addressCount   uint32
	addressValoper bool
)

// addressCmd is the parent command for address operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressCmd = &cobra.Command{
	Use:     "address",
	Short:   "Derive and validate addresses",
	GroupID: "chain",
	Long: `Derive receive and change addresses from an account extended public key,
or check an address against a chain's encoding rules.

Only public keys are handled; no private key material is accepted.`,
}

// addressDeriveCmd derives addresses below an account xpub.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive addresses from an account xpub",
	Long: `Derive one or more consecutive addresses below an account level extended
public key (the key at m/purpose'/coinType'/account').

The chain decides the address encoding: segwit or legacy base58 for UTXO
chains, EIP-55 hex for EVM chains and bech32 for Cosmos-SDK chains.`,
	Example: `  chaincore address derive --chain eip155:1 --xpub xpub6C...
  chaincore address derive --chain bip122:000000000019d6689c085ae165831e93 --xpub xpub6C... --count 5
  chaincore address derive --chain cosmos:cosmoshub-4 --xpub xpub6C... --change --index 3`,
	Args: cobra.NoArgs,
	RunE: runAddressDerive,
}

// addressValidateCmd checks an address.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressValidateCmd = &cobra.Command{
	Use:   "validate <address>",
	Short: "Validate an address for a chain",
	Long: `Check that an address is well formed for a chain, including its checksum,
network version byte or bech32 prefix.

With --validator the address is checked as a Cosmos-SDK staking operator
address (cosmosvaloper1..., osmovaloper1...).`,
	Example: `  chaincore address validate --chain eip155:1 0x9858EfFD232B4033E47d90003D41EC34EcaEda94
  chaincore address validate --chain cosmos:osmosis-1 osmo1...
  chaincore address validate --chain cosmos:cosmoshub-4 --validator cosmosvaloper1...`,
	Args: cobra.ExactArgs(1),
	RunE: runAddressValidate,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.AddCommand(addressDeriveCmd)
	addressCmd.AddCommand(addressValidateCmd)

	addressCmd.PersistentFlags().StringVar(&addressChain, "chain", "", "CAIP-2 chain id (required)")

	addressDeriveCmd.Flags().StringVar(&addressXPub, "xpub", "", "account extended public key (required)")
	addressDeriveCmd.Flags().Uint32Var(&addressAccount, "account", 0, "account number the xpub belongs to")
	addressDeriveCmd.Flags().BoolVar(&addressChange, "change", false, "derive change addresses")
	addressDeriveCmd.Flags().Uint32Var(&addressIndex, "index", 0, "first address index")
	addressDeriveCmd.Flags().Uint32Var(&addressCount, "count", 1, "number of consecutive addresses")

	addressValidateCmd.Flags().BoolVar(&addressValoper, "validator", false, "check a staking validator operator address")

	_ = addressDeriveCmd.MarkFlagRequired("xpub")
}

// derivedAddress is one derived address with its full path.
type derivedAddress struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}

// deriveResult lists derived addresses for one chain.
type deriveResult struct {
	ChainID   string           `json:"chain_id"`
	Addresses []derivedAddress `json:"addresses"`
}

// RenderText implements output.TextRenderer.
func (r deriveResult) RenderText(w io.Writer) error {
	table := output.NewTable("PATH", "ADDRESS")
	for _, a := range r.Addresses {
		table.AddRow(a.Path, a.Address)
	}
	return table.Render(w)
}

func runAddressDerive(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	id, err := parseChainFlag(addressChain)
	if err != nil {
		return err
	}
	network, err := chain.LookupNetwork(id)
	if err != nil {
		return err
	}
	if addressCount == 0 || addressCount > maxDeriveCount {
		return coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidInput, "--count must be between 1 and %d", maxDeriveCount),
			map[string]string{"count": fmt.Sprint(addressCount)},
		)
	}

	xpub := strings.TrimSpace(addressXPub)
	result := deriveResult{ChainID: id.String(), Addresses: make([]derivedAddress, 0, addressCount)}
	for i := uint32(0); i < addressCount; i++ {
		params := network.Path(addressAccount, addressChange, addressIndex+i)
		address, err := cc.Registry.DeriveAddress(id, xpub, params)
		if err != nil {
			return err
		}
		result.Addresses = append(result.Addresses, derivedAddress{Path: params.String(), Address: address})
	}

	cc.Log.Debug("derived %d addresses on %s", len(result.Addresses), id)
	return cc.Fmt.Print(result)
}

func runAddressValidate(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	id, err := parseChainFlag(addressChain)
	if err != nil {
		return err
	}
	address := strings.TrimSpace(args[0])
	kind := "address"
	if addressValoper {
		kind = "validator address"
		err = cc.Registry.ValidateValidatorAddress(id, address)
	} else {
		err = cc.Registry.ValidateAddress(id, address)
	}
	if err != nil {
		return err
	}
	return output.FormatSuccess(cc.Fmt.Writer(), fmt.Sprintf("%s is a valid %s %s", address, id, kind), cc.Fmt.Format())
}
