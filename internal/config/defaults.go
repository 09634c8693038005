package config

// Build defaults shared with the family packages' own fallbacks.
const (
	DefaultFeeRate       uint64  = 10
	DefaultGasMultiplier float64 = 1.5
	DefaultGasSpeed              = "medium"
	DefaultWorkers               = 8
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.chaincore",
		UTXO: UTXOConfig{
			DefaultFeeRate: DefaultFeeRate,
		},
		EVM: EVMConfig{
			GasMultiplier: DefaultGasMultiplier,
			GasSpeed:      DefaultGasSpeed,
		},
		Batch: BatchConfig{
			Workers: DefaultWorkers,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:  "error",
			File:   "~/.chaincore/chaincore.log",
			Format: "text",
		},
	}
}
