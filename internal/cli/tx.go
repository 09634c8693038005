package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	"github.com/mrz1836/chaincore/internal/output"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	txChain    string
	txRequest  string
	txAmount   string
	txDecimals int32
	txWatched  string
	txType     string
)

// txCmd is the parent command for transaction operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txCmd = &cobra.Command{
	Use:     "tx",
	Short:   "Build unsigned transactions and normalize history",
	GroupID: "chain",
	Long: `Build unsigned transactions from a JSON request, estimate their fees, and
normalize raw indexer records into typed transfers.

Nothing is signed or broadcast. Chain state such as UTXOs, nonces, gas
prices and account sequences is supplied in the request.`,
}

// txBuildCmd builds an unsigned transaction.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an unsigned transaction from a request",
	Long: `Build an unsigned transaction from a JSON build request.

The request names from, to and amount (in base units) plus exactly one of
the utxo, account or cosmos parameter blocks. --amount replaces the amount
with a decimal value in the asset's display units.`,
	Example: `  chaincore tx build --chain bip122:000000000019d6689c085ae165831e93 --request send.json
  chaincore tx build --chain eip155:1 --request send.json --amount 0.25
  cat delegate.json | chaincore tx build --chain cosmos:cosmoshub-4 --request - -o json`,
	Args: cobra.NoArgs,
	RunE: runTxBuild,
}

// txFeeCmd estimates the fee of a request.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txFeeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Estimate the fee of a build request",
	Long: `Estimate the fee a build request would pay, in the chain's native asset.

UTXO fees come from coin selection at the requested fee rate, EVM fees from
the scaled gas limit and speed adjusted gas price, and Cosmos-SDK fees from
the request or the chain's fixed fee table.`,
	Example: `  chaincore tx fee --chain eip155:137 --request send.json
  chaincore tx fee --chain cosmos:osmosis-1 --request - < send.json`,
	Args: cobra.NoArgs,
	RunE: runTxFee,
}

// txParseCmd normalizes raw indexer records.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txParseCmd = &cobra.Command{
	Use:   "parse [file]...",
	Short: "Normalize raw indexer records",
	Long: `Normalize raw indexer records into typed transfers relative to a watched
address.

Each file holds one JSON record or a JSON array of records. With no file,
or with "-", records are read from standard input. Records are parsed in
parallel and printed in input order.`,
	Example: `  chaincore tx parse --chain eip155:1 --watched 0x9858EfFD232B4033E47d90003D41EC34EcaEda94 history.json
  chaincore tx parse --chain eip155:1 --type token history.json
  chaincore tx parse --chain cosmos:cosmoshub-4 --watched cosmos1... page1.json page2.json
  curl -s $INDEXER/txs | chaincore tx parse --chain bip122:000000000019d6689c085ae165831e93`,
	RunE: runTxParse,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txBuildCmd)
	txCmd.AddCommand(txFeeCmd)
	txCmd.AddCommand(txParseCmd)

	txCmd.PersistentFlags().StringVar(&txChain, "chain", "", "CAIP-2 chain id (required)")

	for _, c := range []*cobra.Command{txBuildCmd, txFeeCmd} {
		c.Flags().StringVar(&txRequest, "request", "", "build request JSON file, or - for stdin (required)")
		c.Flags().StringVar(&txAmount, "amount", "", "decimal amount overriding the request amount")
		c.Flags().Int32Var(&txDecimals, "decimals", 0, "decimal places of --amount (default: the native asset's)")
		_ = c.MarkFlagRequired("request")
	}

	txParseCmd.Flags().StringVar(&txWatched, "watched", "", "address the transfers are normalized for")
	txParseCmd.Flags().StringVar(&txType, "type", "", "only keep transfers of one type, e.g. native, token, stake")
}

// buildResult wraps an unsigned transaction with display context.
type buildResult struct {
	ChainID     string                    `json:"chain_id"`
	Family      string                    `json:"family"`
	Transaction chain.UnsignedTransaction `json:"transaction"`

	network chain.Network
}

// RenderText implements output.TextRenderer.
func (r buildResult) RenderText(w io.Writer) error {
	n := r.network
	pairs := []string{"Chain:", r.ChainID, "Family:", r.Family}

	switch tx := r.Transaction.(type) {
	case *chain.UTXOTransaction:
		pairs = append(pairs,
			"Inputs:", fmt.Sprintf("%d (%s)", len(tx.Inputs), formatUnits(n, new(big.Int).SetUint64(tx.TotalInput()))),
			"Outputs:", formatUnits(n, new(big.Int).SetUint64(tx.TotalOutput())),
			"Fee:", formatUnits(n, new(big.Int).SetUint64(tx.Fee)),
			"Fee Rate:", fmt.Sprintf("%d sat/vB", tx.FeeRate),
			"Size:", fmt.Sprintf("%d vB", tx.VSize),
		)
		if err := output.WriteFields(w, pairs...); err != nil {
			return err
		}
		table := output.NewTable("OUTPUT", "ADDRESS", "VALUE")
		table.AlignRight(2)
		for i, out := range tx.Outputs {
			addr := out.Address
			if out.Data != "" {
				addr = "OP_RETURN " + out.Data
			}
			table.AddRow(strconv.Itoa(i), addr, formatUnits(n, new(big.Int).SetUint64(out.Value)))
		}
		if tx.Change != nil {
			table.AddRow("change", tx.Change.Address, formatUnits(n, new(big.Int).SetUint64(tx.Change.Value)))
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := table.Render(w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\nRaw: %s\n", tx.Raw)
		return err

	case *chain.AccountTransaction:
		pairs = append(pairs,
			"To:", tx.To,
			"Value:", formatUnits(n, tx.Value),
			"Nonce:", strconv.FormatUint(tx.Nonce, 10),
			"Gas Limit:", strconv.FormatUint(tx.GasLimit, 10),
			"Gas Price:", tx.GasPrice.String(),
			"Chain ID:", tx.NumericChainID.String(),
			"Data:", tx.Data.String(),
			"Signing Hash:", tx.SigningHash.String(),
		)

	case *chain.CosmosTransaction:
		pairs = append(pairs, "Message:", tx.Message.TypeURL, "From:", tx.Message.From)
		if tx.Message.To != "" {
			pairs = append(pairs, "To:", tx.Message.To)
		}
		if tx.Message.Validator != "" {
			pairs = append(pairs, "Validator:", tx.Message.Validator)
		}
		if tx.Message.Amount != nil {
			pairs = append(pairs, "Amount:", formatCoin(n, *tx.Message.Amount))
		}
		fees := make([]string, 0, len(tx.Fee))
		for _, c := range tx.Fee {
			fees = append(fees, formatCoin(n, c))
		}
		pairs = append(pairs,
			"Fee:", strings.Join(fees, ", "),
			"Gas:", strconv.FormatUint(tx.Gas, 10),
			"Account Number:", strconv.FormatUint(tx.AccountNumber, 10),
			"Sequence:", strconv.FormatUint(tx.Sequence, 10),
			"Memo:", tx.Memo,
			"Body:", tx.BodyBytes.String(),
			"Auth Info:", tx.AuthInfoBytes.String(),
		)
	}
	return output.WriteFields(w, pairs...)
}

// feeResult is a fee estimate with display context.
type feeResult struct {
	ChainID string `json:"chain_id"`
	*chain.FeeEstimate

	network chain.Network
}

// RenderText implements output.TextRenderer.
func (r feeResult) RenderText(w io.Writer) error {
	pairs := []string{
		"Chain:", r.ChainID,
		"Fee:", formatUnits(r.network, r.Amount),
	}
	if r.FeeRate > 0 {
		pairs = append(pairs, "Fee Rate:", fmt.Sprintf("%d sat/vB", r.FeeRate), "Size:", fmt.Sprintf("%d vB", r.VSize))
	}
	if r.GasLimit > 0 {
		pairs = append(pairs, "Gas Limit:", strconv.FormatUint(r.GasLimit, 10))
	}
	if r.GasPrice != nil {
		pairs = append(pairs, "Gas Price:", r.GasPrice.String())
	}
	return output.WriteFields(w, pairs...)
}

// parseResult is a batch of normalized records.
type parseResult struct {
	Transactions []*chain.NormalizedTransaction

	network chain.Network
}

// MarshalJSON encodes the batch as a plain array.
func (r parseResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Transactions)
}

// RenderText implements output.TextRenderer.
func (r parseResult) RenderText(w io.Writer) error {
	table := output.NewTable("TXID", "STATUS", "TYPE", "FROM", "TO", "ASSET", "VALUE")
	table.AlignRight(6)
	for _, tx := range r.Transactions {
		if len(tx.Transfers) == 0 {
			table.AddRow(tx.TxID, string(tx.Status), "-", "", "", "", "")
			continue
		}
		for _, tr := range tx.Transfers {
			table.AddRow(tx.TxID, string(tx.Status), string(tr.Type), tr.From, tr.To, tr.AssetID.String(), formatTransferValue(r.network, tr))
		}
	}
	return table.Render(w)
}

func runTxBuild(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	id, network, req, err := loadBuildRequest(cmd)
	if err != nil {
		return err
	}
	tx, err := cc.Registry.Build(id, req)
	if err != nil {
		return err
	}
	cc.Log.Debug("built %s transaction on %s", tx.Family(), id)
	return cc.Fmt.Print(buildResult{
		ChainID:     id.String(),
		Family:      tx.Family().String(),
		Transaction: tx,
		network:     network,
	})
}

func runTxFee(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	id, network, req, err := loadBuildRequest(cmd)
	if err != nil {
		return err
	}
	fee, err := cc.Registry.EstimateFee(id, req)
	if err != nil {
		return err
	}
	return cc.Fmt.Print(feeResult{ChainID: id.String(), FeeEstimate: fee, network: network})
}

func runTxParse(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	id, err := parseChainFlag(txChain)
	if err != nil {
		return err
	}
	network, err := chain.LookupNetwork(id)
	if err != nil {
		return err
	}
	filter := chain.TransferType(strings.ToLower(strings.TrimSpace(txType)))
	if filter != "" && !filter.IsValid() {
		return coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrInvalidInput, "unknown transfer type %q", txType),
			map[string]string{"valid": "native, token, internal, ibc, stake, unstake, pending_unstake, claim"},
		)
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	var raws [][]byte
	for _, name := range args {
		data, err := readInput(cmd, name)
		if err != nil {
			return err
		}
		records, err := splitRecords(data)
		if err != nil {
			return coreerr.WithDetails(err, map[string]string{"file": name})
		}
		raws = append(raws, records...)
	}

	txs, err := cc.Registry.ParseBatch(cmd.Context(), id, raws, strings.TrimSpace(txWatched))
	if err != nil {
		return err
	}
	if filter != "" {
		for _, tx := range txs {
			tx.Transfers = tx.TransfersOfType(filter)
		}
	}
	return cc.Fmt.Print(parseResult{Transactions: txs, network: network})
}

// loadBuildRequest reads --request and applies --amount.
func loadBuildRequest(cmd *cobra.Command) (caip.ChainID, chain.Network, *chain.BuildRequest, error) {
	id, err := parseChainFlag(txChain)
	if err != nil {
		return caip.ChainID{}, chain.Network{}, nil, err
	}
	network, err := chain.LookupNetwork(id)
	if err != nil {
		return caip.ChainID{}, chain.Network{}, nil, err
	}

	data, err := readInput(cmd, txRequest)
	if err != nil {
		return caip.ChainID{}, chain.Network{}, nil, err
	}
	var req chain.BuildRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return caip.ChainID{}, chain.Network{}, nil, coreerr.WithDetails(
			coreerr.WithCause(coreerr.ErrInvalidFormat, err),
			map[string]string{"file": txRequest},
		)
	}

	if cmd.Flags().Changed("amount") {
		decimals := network.Decimals
		if cmd.Flags().Changed("decimals") {
			decimals = txDecimals
		}
		amount, err := chain.ParseDecimalAmount(txAmount, decimals)
		if err != nil {
			return caip.ChainID{}, chain.Network{}, nil, err
		}
		req.Amount = amount
	}
	return id, network, &req, nil
}

// readInput reads a named file, or standard input for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	// #nosec G304 -- input path is supplied by the user on the command line
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, coreerr.WithDetails(
				coreerr.Newf(coreerr.ErrNotFound, "input file %s not found", name),
				map[string]string{"file": name},
			)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// splitRecords turns a JSON object or array of objects into raw records.
func splitRecords(data []byte) ([][]byte, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return [][]byte{[]byte(trimmed)}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidFormat, err)
	}
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

// formatUnits renders base units of the native asset with its symbol.
func formatUnits(n chain.Network, v *big.Int) string {
	return chain.FormatDecimalAmount(v, n.Decimals) + " " + n.Symbol
}

func formatCoin(n chain.Network, c chain.Coin) string {
	if c.Denom == n.Denom {
		if v, ok := chain.ParseBaseUnits(c.Amount); ok {
			return formatUnits(n, v)
		}
	}
	return c.Amount + c.Denom
}

// formatTransferValue uses display units for the native asset and base units
// for everything else, whose decimals are unknown here.
func formatTransferValue(n chain.Network, tr chain.Transfer) string {
	if tr.AssetID == n.NativeAsset {
		if v, ok := chain.ParseBaseUnits(tr.Value); ok {
			return formatUnits(n, v)
		}
	}
	return tr.Value
}
