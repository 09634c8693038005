package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

func TestChainsCommand_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "-o", "json", "chains")
	require.NoError(t, err)

	var list []chainInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	assert.Len(t, list, len(chain.Networks()))

	byID := make(map[string]chainInfo, len(list))
	for _, c := range list {
		byID[c.ChainID] = c
	}
	btc := byID["bip122:000000000019d6689c085ae165831e93"]
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, "utxo", btc.Family)
	assert.Equal(t, "m/84'/0'/0'", btc.AccountPath)
	assert.Equal(t, "bip122:000000000019d6689c085ae165831e93/slip44:0", btc.NativeAsset)
}

func TestChainsCommand_FamilyFilter(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "-o", "json", "chains", "--family", "COSMOS")
	require.NoError(t, err)

	var list []chainInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	require.NotEmpty(t, list)
	for _, c := range list {
		assert.Equal(t, "cosmos", c.Family)
		assert.True(t, strings.HasPrefix(c.ChainID, "cosmos:"))
	}
}

func TestChainsCommand_Text(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "-o", "text", "chains", "--family", "account")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Greater(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "CHAIN"))
	assert.Contains(t, stdout, "eip155:1 ")
	assert.Contains(t, stdout, "m/44'/60'/0'")
}

func TestChainsCommand_UnknownFamily(t *testing.T) {
	_, _, err := executeCommand(t, "", "chains", "--family", "solana")
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerr.ErrInvalidInput)
}

func TestParseChainFlag(t *testing.T) {
	_, err := parseChainFlag("")
	require.ErrorIs(t, err, coreerr.ErrMissingParam)

	_, err = parseChainFlag("eip155:31337")
	require.ErrorIs(t, err, coreerr.ErrUnsupportedChain)

	id, err := parseChainFlag(" eip155:137 ")
	require.NoError(t, err)
	assert.Equal(t, "eip155:137", id.String())
}
