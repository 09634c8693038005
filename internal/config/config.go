// Package config provides configuration management for chaincore.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/chaincore/internal/caip"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	UTXO    UTXOConfig    `yaml:"utxo"`
	EVM     EVMConfig     `yaml:"evm"`
	Cosmos  CosmosConfig  `yaml:"cosmos"`
	Batch   BatchConfig   `yaml:"batch"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// UTXOConfig defines UTXO build settings. DustLimits is keyed by CAIP-2 id.
type UTXOConfig struct {
	DefaultFeeRate uint64            `yaml:"default_fee_rate"`
	DustLimits     map[string]uint64 `yaml:"dust_limits,omitempty"`
}

// EVMConfig defines account build settings. ChainIDs overrides the numeric
// EIP-155 id signed for a CAIP-2 network, e.g. for a fork or testnet.
type EVMConfig struct {
	GasMultiplier float64           `yaml:"gas_multiplier"`
	GasSpeed      string            `yaml:"gas_speed"`
	ChainIDs      map[string]uint64 `yaml:"chain_ids,omitempty"`
}

// CosmosConfig overrides the network gas and fee tables, keyed by CAIP-2 id.
type CosmosConfig struct {
	Gas map[string]uint64 `yaml:"gas,omitempty"`
	Fee map[string]uint64 `yaml:"fee,omitempty"`
}

// BatchConfig defines batch parsing settings.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // text or json
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, coreerr.WithCause(coreerr.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return writeFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks the values a build or parse would reject later.
func (c *Config) Validate() error {
	if c.EVM.GasMultiplier < 0 {
		return invalid("evm.gas_multiplier", "must not be negative")
	}
	switch c.EVM.GasSpeed {
	case "", "slow", "medium", "fast":
	default:
		return invalid("evm.gas_speed", "must be slow, medium, or fast")
	}
	if c.Batch.Workers < 0 {
		return invalid("batch.workers", "must not be negative")
	}
	switch c.Output.DefaultFormat {
	case "", "auto", "text", "json":
	default:
		return invalid("output.default_format", "must be auto, text, or json")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return invalid("logging.format", "must be text or json")
	}

	for section, keys := range map[string][]string{
		"utxo.dust_limits": mapKeys(c.UTXO.DustLimits),
		"evm.chain_ids":    mapKeys(c.EVM.ChainIDs),
		"cosmos.gas":       mapKeys(c.Cosmos.Gas),
		"cosmos.fee":       mapKeys(c.Cosmos.Fee),
	} {
		for _, key := range keys {
			if _, err := caip.ParseChainID(key); err != nil {
				return coreerr.WithDetails(
					coreerr.WithCause(coreerr.ErrConfigInvalid, err),
					map[string]string{"field": section, "key": key},
				)
			}
		}
	}
	return nil
}

func invalid(field, reason string) error {
	return coreerr.WithDetails(
		coreerr.Newf(coreerr.ErrConfigInvalid, "%s %s", field, reason),
		map[string]string{"field": field},
	)
}

func mapKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// GetHome returns the chaincore home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// LogJSON reports whether log lines are written as JSON objects.
func (c *Config) LogJSON() bool {
	return c.Logging.Format == "json"
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default chaincore home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chaincore"
	}
	return filepath.Join(home, ".chaincore")
}
