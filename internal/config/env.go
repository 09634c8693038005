package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. CHAINCORE_FEE_RATE.
const EnvPrefix = "CHAINCORE"

// envOverrides lists the settings that can come from the environment; the
// variable name is the prefix plus the upper snake case field name.
// Pointers distinguish "unset" from a zero value.
type envOverrides struct {
	Home          string
	FeeRate       *uint64  `split_words:"true"`
	GasMultiplier *float64 `split_words:"true"`
	GasSpeed      string   `split_words:"true"`
	Workers       *int
	OutputFormat  string `split_words:"true"`
	Verbose       *bool
	LogLevel      string `split_words:"true"`
	LogFile       string `split_words:"true"`
	LogFormat     string `split_words:"true"`
}

// ApplyEnvironment applies CHAINCORE_* overrides to the configuration.
// A value that does not parse as its field's type is a config error.
//
//nolint:gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return coreerr.WithCause(coreerr.ErrConfigInvalid, err)
	}

	if env.Home != "" {
		cfg.Home = env.Home
	}
	if env.FeeRate != nil {
		cfg.UTXO.DefaultFeeRate = *env.FeeRate
	}
	if env.GasMultiplier != nil {
		cfg.EVM.GasMultiplier = *env.GasMultiplier
	}
	if env.GasSpeed != "" {
		cfg.EVM.GasSpeed = strings.ToLower(env.GasSpeed)
	}
	if env.Workers != nil {
		cfg.Batch.Workers = *env.Workers
	}
	if env.OutputFormat != "" {
		cfg.Output.DefaultFormat = strings.ToLower(env.OutputFormat)
	}
	if env.Verbose != nil {
		cfg.Output.Verbose = *env.Verbose
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(env.LogLevel)
	}
	if env.LogFile != "" {
		cfg.Logging.File = env.LogFile
	}
	if env.LogFormat != "" {
		cfg.Logging.Format = strings.ToLower(env.LogFormat)
	}
	return nil
}
