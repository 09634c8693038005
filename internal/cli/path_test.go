package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

func TestPathParseCommand_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "-o", "json", "path", "parse", "m/84h/0h/2h/1/7")
	require.NoError(t, err)

	var result pathResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, uint32(84), result.Purpose)
	assert.Equal(t, uint32(0), result.CoinType)
	assert.Equal(t, uint32(2), result.AccountNumber)
	assert.True(t, result.IsChange)
	assert.Equal(t, uint32(7), result.Index)
	assert.Equal(t, "m/84'/0'/2'/1/7", result.Path)
	assert.Equal(t, "m/84'/0'/2'", result.RootPath)
}

func TestPathParseCommand_Text(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "-o", "text", "path", "parse", "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Path:          m/44'/60'/0'/0/0\n")
	assert.Contains(t, stdout, "Account Path:  m/44'/60'/0'\n")
}

func TestPathParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want *coreerr.CoreError
	}{
		{"missing root", "44'/0'/0'/0/0", coreerr.ErrParse},
		{"four segments", "m/44'/0'/0'/0", coreerr.ErrInvalidPath},
		{"change out of range", "m/44'/0'/0'/2/0", coreerr.ErrParse},
		{"not a number", "m/44'/x'/0'/0/0", coreerr.ErrParse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "", "path", "parse", tc.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPathFormatCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "explicit fields",
			args: []string{"--purpose", "44", "--coin-type", "60", "--account", "3"},
			want: "m/44'/60'/3'/0/0",
		},
		{
			name: "chain defaults",
			args: []string{"--chain", "bip122:000000000019d6689c085ae165831e93", "--account", "0", "--index", "5"},
			want: "m/84'/0'/0'/0/5",
		},
		{
			name: "explicit purpose beats chain default",
			args: []string{"--chain", "bip122:000000000019d6689c085ae165831e93", "--purpose", "44", "--account", "1", "--change"},
			want: "m/44'/0'/1'/1/0",
		},
		{
			name: "explicit zero account",
			args: []string{"--chain", "cosmos:cosmoshub-4", "--account", "0"},
			want: "m/44'/118'/0'/0/0",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"-o", "json", "path", "format"}, tc.args...)
			stdout, _, err := executeCommand(t, "", args...)
			require.NoError(t, err)

			var result pathResult
			require.NoError(t, json.Unmarshal([]byte(stdout), &result))
			assert.Equal(t, tc.want, result.Path)
		})
	}
}

func TestPathFormatCommand_MissingFields(t *testing.T) {
	_, _, err := executeCommand(t, "", "path", "format", "--purpose", "44", "--coin-type", "60")
	require.Error(t, err)
	require.ErrorIs(t, err, coreerr.ErrMissingParam)

	_, _, err = executeCommand(t, "", "path", "format", "--account", "0")
	require.ErrorIs(t, err, coreerr.ErrMissingParam)
}
