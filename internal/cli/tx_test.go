package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const (
	evmRequest = `{
  "from": "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
  "to": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
  "amount": 1000,
  "account": {"nonce": 7, "estimated_gas": 21000, "gas_price": 100}
}`
	utxoRequest = `{
  "from": "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
  "to": "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
  "amount": 40000,
  "utxo": {
    "utxos": [{"txid": "0000000000000000000000000000000000000000000000000000000000000001", "vout": 0, "value": 100000}],
    "fee_rate": 10
  }
}`
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// builtAccountTx mirrors the JSON shape of an account build.
type builtAccountTx struct {
	ChainID     string `json:"chain_id"`
	Family      string `json:"family"`
	Transaction struct {
		To             string      `json:"to"`
		Value          json.Number `json:"value"`
		Nonce          uint64      `json:"nonce"`
		GasLimit       uint64      `json:"gas_limit"`
		GasPrice       json.Number `json:"gas_price"`
		NumericChainID json.Number `json:"numeric_chain_id"`
		SigningHash    string      `json:"signing_hash"`
	} `json:"transaction"`
}

func TestTxBuildCommand_Account(t *testing.T) {
	req := writeTemp(t, "send.json", evmRequest)
	stdout, _, err := executeCommand(t, "", "-o", "json", "tx", "build", "--chain", "eip155:1", "--request", req)
	require.NoError(t, err)

	var result builtAccountTx
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "eip155:1", result.ChainID)
	assert.Equal(t, "account", result.Family)
	assert.Equal(t, testOther, result.Transaction.To)
	assert.Equal(t, "1000", result.Transaction.Value.String())
	assert.Equal(t, uint64(7), result.Transaction.Nonce)
	assert.Equal(t, uint64(31500), result.Transaction.GasLimit, "gas is scaled by the multiplier")
	assert.Equal(t, "100", result.Transaction.GasPrice.String(), "medium speed keeps the price")
	assert.Equal(t, "1", result.Transaction.NumericChainID.String())
	assert.True(t, strings.HasPrefix(result.Transaction.SigningHash, "0x"))
	assert.Len(t, result.Transaction.SigningHash, 66)
}

func TestTxBuildCommand_DecimalAmount(t *testing.T) {
	req := writeTemp(t, "send.json", evmRequest)
	stdout, _, err := executeCommand(t, "", "-o", "json", "tx", "build", "--chain", "eip155:1", "--request", req, "--amount", "0.5")
	require.NoError(t, err)

	var result builtAccountTx
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "500000000000000000", result.Transaction.Value.String())

	stdout, _, err = executeCommand(t, "", "-o", "json", "tx", "build", "--chain", "eip155:1", "--request", req,
		"--amount", "2.5", "--decimals", "6")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "2500000", result.Transaction.Value.String())
}

func TestTxBuildCommand_Text(t *testing.T) {
	req := writeTemp(t, "send.json", evmRequest)
	stdout, _, err := executeCommand(t, "", "-o", "text", "tx", "build", "--chain", "eip155:1", "--request", req, "--amount", "0.5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Family:        account\n")
	assert.Contains(t, stdout, "Value:         0.5 ETH\n")
	assert.Contains(t, stdout, "Signing Hash:  0x")
}

func TestTxBuildCommand_UTXOFromStdin(t *testing.T) {
	stdout, _, err := executeCommand(t, utxoRequest, "-o", "json", "tx", "build",
		"--chain", btcChainID, "--request", "-")
	require.NoError(t, err)

	var result struct {
		Family      string `json:"family"`
		Transaction struct {
			Inputs  []chain.TxInput  `json:"inputs"`
			Outputs []chain.TxOutput `json:"outputs"`
			Change  *chain.TxOutput  `json:"change"`
			Fee     uint64           `json:"fee"`
			FeeRate uint64           `json:"fee_rate"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "utxo", result.Family)
	require.Len(t, result.Transaction.Inputs, 1)
	require.Len(t, result.Transaction.Outputs, 1)
	assert.Equal(t, uint64(40000), result.Transaction.Outputs[0].Value)
	assert.Equal(t, uint64(10), result.Transaction.FeeRate)
	require.NotNil(t, result.Transaction.Change)
	assert.Equal(t, testBTCAddr, result.Transaction.Change.Address, "change returns to the sender")
	assert.Equal(t, uint64(100000), 40000+result.Transaction.Fee+result.Transaction.Change.Value)
}

func TestTxBuildCommand_UTXOText(t *testing.T) {
	stdout, _, err := executeCommand(t, utxoRequest, "-o", "text", "tx", "build",
		"--chain", btcChainID, "--request", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Inputs:    1 (0.001 BTC)\n")
	assert.Contains(t, stdout, "Outputs:   0.000", "outputs total includes change")
	assert.Contains(t, stdout, "Fee Rate:  10 sat/vB\n")
	assert.Contains(t, stdout, "OUTPUT")
	assert.Contains(t, stdout, "change  "+testBTCAddr)
	assert.Contains(t, stdout, "Raw: 0x")
}

func TestTxBuildCommand_Errors(t *testing.T) {
	badJSON := writeTemp(t, "bad.json", `{"to": `)
	insufficient := writeTemp(t, "poor.json", strings.Replace(utxoRequest, `"amount": 40000`, `"amount": 400000`, 1))

	tests := []struct {
		name string
		args []string
		want *coreerr.CoreError
	}{
		{"missing file", []string{"--chain", "eip155:1", "--request", "/does/not/exist.json"}, coreerr.ErrNotFound},
		{"malformed request", []string{"--chain", "eip155:1", "--request", badJSON}, coreerr.ErrInvalidFormat},
		{"unsupported chain", []string{"--chain", "eip155:31337", "--request", badJSON}, coreerr.ErrUnsupportedChain},
		{"bad decimal amount", []string{"--chain", "eip155:1", "--request", writeTemp(t, "ok.json", evmRequest), "--amount", "-1"}, coreerr.ErrInvalidAmount},
		{"insufficient funds", []string{"--chain", btcChainID, "--request", insufficient}, coreerr.ErrInsufficientFunds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"tx", "build"}, tc.args...)
			_, _, err := executeCommand(t, "", args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTxFeeCommand(t *testing.T) {
	req := writeTemp(t, "send.json", evmRequest)
	stdout, _, err := executeCommand(t, "", "-o", "json", "tx", "fee", "--chain", "eip155:1", "--request", req)
	require.NoError(t, err)

	var fee struct {
		ChainID  string      `json:"chain_id"`
		Asset    string      `json:"asset"`
		Amount   json.Number `json:"amount"`
		GasLimit uint64      `json:"gas_limit"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &fee))
	assert.Equal(t, "eip155:1", fee.ChainID)
	assert.Equal(t, "eip155:1/slip44:60", fee.Asset)
	assert.Equal(t, "3150000", fee.Amount.String())
	assert.Equal(t, uint64(31500), fee.GasLimit)

	stdout, _, err = executeCommand(t, "", "-o", "text", "tx", "fee", "--chain", "eip155:1", "--request", req)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Fee:        0.00000000000315 ETH\n")
}

func evmHistoryRecord(txid string, confirmations int) string {
	return fmt.Sprintf(`{"txid": %q, "blockHeight": 100, "confirmations": %d,
		"from": %q, "to": %q, "value": "1000000000000000000",
		"gasUsed": "21000", "gasPrice": "1", "status": 1}`,
		txid, confirmations, testETHAddr, testOther)
}

func TestTxParseCommand_KeepsOrderAcrossFiles(t *testing.T) {
	first := writeTemp(t, "page1.json", "["+evmHistoryRecord("0xa1", 3)+","+evmHistoryRecord("0xa2", 0)+"]")
	second := writeTemp(t, "page2.json", evmHistoryRecord("0xa3", 9))

	stdout, _, err := executeCommand(t, "", "-o", "json", "tx", "parse",
		"--chain", "eip155:1", "--watched", testETHAddr, first, second)
	require.NoError(t, err)

	var txs []chain.NormalizedTransaction
	require.NoError(t, json.Unmarshal([]byte(stdout), &txs))
	require.Len(t, txs, 3)
	assert.Equal(t, "0xa1", txs[0].TxID)
	assert.Equal(t, "0xa2", txs[1].TxID)
	assert.Equal(t, "0xa3", txs[2].TxID)

	require.Len(t, txs[0].Transfers, 1)
	assert.Equal(t, chain.TransferNative, txs[0].Transfers[0].Type)
	assert.Equal(t, "1000000000000000000", txs[0].Transfers[0].Value)
	require.NotNil(t, txs[0].Fee)
	assert.Equal(t, "21000", txs[0].Fee.Value)
}

func TestTxParseCommand_StdinText(t *testing.T) {
	stdout, _, err := executeCommand(t, evmHistoryRecord("0xb1", 5), "-o", "text", "tx", "parse", "--chain", "eip155:1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TXID"))
	assert.Contains(t, lines[2], "0xb1")
	assert.Contains(t, lines[2], "native")
	assert.True(t, strings.HasSuffix(lines[2], "1 ETH"))
}

func TestTxParseCommand_TypeFilter(t *testing.T) {
	page := writeTemp(t, "page.json", "["+evmHistoryRecord("0xe1", 2)+"]")

	stdout, _, err := executeCommand(t, "", "-o", "json", "tx", "parse", "--chain", "eip155:1", "--type", "native", page)
	require.NoError(t, err)
	var txs []chain.NormalizedTransaction
	require.NoError(t, json.Unmarshal([]byte(stdout), &txs))
	require.Len(t, txs, 1)
	assert.Len(t, txs[0].Transfers, 1)

	stdout, _, err = executeCommand(t, "", "-o", "json", "tx", "parse", "--chain", "eip155:1", "--type", "Token", page)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"transfers": []`, "a filtered record keeps an empty transfer list")

	_, _, err = executeCommand(t, "", "tx", "parse", "--chain", "eip155:1", "--type", "swap", page)
	require.ErrorIs(t, err, coreerr.ErrInvalidInput)
}

func TestTxParseCommand_EmptyInput(t *testing.T) {
	stdout, _, err := executeCommand(t, "  \n", "-o", "json", "tx", "parse", "--chain", "eip155:1", "-")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestTxParseCommand_MalformedRecord(t *testing.T) {
	page := writeTemp(t, "page.json", "["+evmHistoryRecord("0xc1", 1)+`, "not an object"]`)

	_, _, err := executeCommand(t, "", "tx", "parse", "--chain", "eip155:1", page)
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerr.ErrInvalidFormat)
	assert.Contains(t, err.Error(), "record 1")

	broken := writeTemp(t, "broken.json", "[{")
	_, _, err = executeCommand(t, "", "tx", "parse", "--chain", "eip155:1", broken)
	require.ErrorIs(t, err, coreerr.ErrInvalidFormat)
}

func TestTxParseCommand_CountsMetrics(t *testing.T) {
	page := writeTemp(t, "page.json", "["+evmHistoryRecord("0xd1", 1)+","+evmHistoryRecord("0xd2", 1)+"]")

	_, stderr, err := executeCommand(t, "", "--metrics", "-o", "json", "tx", "parse", "--chain", "eip155:1", page)
	require.NoError(t, err)
	assert.Contains(t, stderr, `chaincore_parser_transactions_total{chain="eip155:1",status="confirmed"} 2`)
	assert.Contains(t, stderr, "chaincore_batch_duration_seconds_count 1")
}
