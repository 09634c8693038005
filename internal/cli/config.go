package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/config"
	"github.com/mrz1836/chaincore/internal/output"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	GroupID: "config",
	Long: `View and modify chaincore configuration settings.

Values are read from <home>/config.yaml and then overridden by CHAINCORE_*
environment variables and command-line flags.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.chaincore/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  chaincore config init
  chaincore config init --force --home /tmp/chaincore`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after file, environment and flag overrides.`,
	Example: `  chaincore config show
  chaincore config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its path.

The path uses dot notation. Per-chain tables take the CAIP-2 chain id as
their last segment.`,
	Example: `  chaincore config get evm.gas_speed
  chaincore config get utxo.dust_limits.bip122:12a765e31ffd4059bada1e25190f6e98
  chaincore config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its path.

The configuration file is updated immediately and validated before it is
written.`,
	Example: `  chaincore config set evm.gas_speed fast
  chaincore config set cosmos.gas.cosmos:osmosis-1 300000
  chaincore config set batch.workers 16`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	configPath := config.Path(cc.Cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return coreerr.WithSuggestion(
			coreerr.Newf(coreerr.ErrInvalidInput, "configuration already exists at %s", configPath),
			"Use --force to overwrite.",
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cc.Cfg.Home
	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if cc.Fmt.IsJSON() {
		return output.FormatSuccess(cc.Fmt.Writer(), "configuration initialized at "+configPath, output.FormatJSON)
	}
	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - utxo.default_fee_rate: fee rate when a request omits one (sat/vB)")
	outln(w, "  - evm.gas_speed: slow, medium or fast")
	outln(w, "  - cosmos.gas / cosmos.fee: per-chain gas and fee overrides")
	outln(w, "  - batch.workers: parallel parse workers")
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	data, err := yaml.Marshal(cc.Cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if !cc.Fmt.IsJSON() {
		_, err = cc.Fmt.Writer().Write(data)
		return err
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return cc.Fmt.Print(tree)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	value, err := getConfigValue(cc.Cfg, args[0])
	if err != nil {
		return coreerr.WithSuggestion(err, "Run 'chaincore config show' to list the available keys")
	}
	if cc.Fmt.IsJSON() {
		return cc.Fmt.Print(map[string]string{"path": args[0], "value": value})
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	path, value := args[0], args[1]

	configPath := config.Path(cc.Cfg.Home)
	current, err := config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		current = config.Defaults()
		current.Home = cc.Cfg.Home
	}

	if err := setConfigValue(current, path, value); err != nil {
		return err
	}
	if err := current.Validate(); err != nil {
		return err
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	cc.Log.Debug("config %s set in %s", path, configPath)
	return output.FormatSuccess(cc.Fmt.Writer(), fmt.Sprintf("Set %s = %s", path, value), cc.Fmt.Format())
}

func unknownKey(details map[string]string) error {
	return coreerr.WithDetails(coreerr.ErrUnknownConfigKey, details)
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	parts := strings.SplitN(path, ".", 3)

	switch len(parts) {
	case 1:
		if parts[0] == "home" {
			return c.Home, nil
		}
		return "", unknownKey(map[string]string{"key": parts[0]})
	case 2:
		switch parts[0] + "." + parts[1] {
		case "utxo.default_fee_rate":
			return strconv.FormatUint(c.UTXO.DefaultFeeRate, 10), nil
		case "evm.gas_multiplier":
			return strconv.FormatFloat(c.EVM.GasMultiplier, 'f', -1, 64), nil
		case "evm.gas_speed":
			return c.EVM.GasSpeed, nil
		case "batch.workers":
			return strconv.Itoa(c.Batch.Workers), nil
		case "output.default_format":
			return c.Output.DefaultFormat, nil
		case "output.verbose":
			return strconv.FormatBool(c.Output.Verbose), nil
		case "logging.level":
			return c.Logging.Level, nil
		case "logging.file":
			return c.Logging.File, nil
		case "logging.format":
			return c.Logging.Format, nil
		}
		return "", unknownKey(map[string]string{"section": parts[0], "key": parts[1]})
	default:
		table, err := chainTable(c, parts[0]+"."+parts[1])
		if err != nil {
			return "", err
		}
		v, ok := table[parts[2]]
		if !ok {
			return "", unknownKey(map[string]string{"section": parts[0] + "." + parts[1], "chain_id": parts[2]})
		}
		return strconv.FormatUint(v, 10), nil
	}
}

// setConfigValue sets a value in the config using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	parts := strings.SplitN(path, ".", 3)

	switch len(parts) {
	case 1:
		if parts[0] == "home" {
			c.Home = value
			return nil
		}
		return unknownKey(map[string]string{"key": parts[0]})
	case 2:
		return setScalar(c, parts[0]+"."+parts[1], value)
	default:
		section := parts[0] + "." + parts[1]
		if _, err := chainTable(c, section); err != nil {
			return err
		}
		id, err := caip.ParseChainID(parts[2])
		if err != nil {
			return err
		}
		v, err := parseUintValue(path, value)
		if err != nil {
			return err
		}
		setChainValue(c, section, id.String(), v)
		return nil
	}
}

func setScalar(c *config.Config, key, value string) error {
	switch key {
	case "utxo.default_fee_rate":
		v, err := parseUintValue(key, value)
		if err != nil {
			return err
		}
		c.UTXO.DefaultFeeRate = v
	case "evm.gas_multiplier":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalidValue(key, value, "a decimal number")
		}
		c.EVM.GasMultiplier = v
	case "evm.gas_speed":
		c.EVM.GasSpeed = value
	case "batch.workers":
		v, err := strconv.Atoi(value)
		if err != nil {
			return invalidValue(key, value, "an integer")
		}
		c.Batch.Workers = v
	case "output.default_format":
		c.Output.DefaultFormat = value
	case "output.verbose":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return invalidValue(key, value, "true or false")
		}
		c.Output.Verbose = v
	case "logging.level":
		switch value {
		case "off", "error", "debug":
		default:
			return invalidValue(key, value, "off, error, or debug")
		}
		c.Logging.Level = value
	case "logging.file":
		c.Logging.File = value
	case "logging.format":
		switch value {
		case "text", "json":
		default:
			return invalidValue(key, value, "text or json")
		}
		c.Logging.Format = value
	default:
		section, name, _ := strings.Cut(key, ".")
		return unknownKey(map[string]string{"section": section, "key": name})
	}
	return nil
}

// chainTable returns the per-chain table stored under section.
func chainTable(c *config.Config, section string) (map[string]uint64, error) {
	switch section {
	case "utxo.dust_limits":
		return c.UTXO.DustLimits, nil
	case "evm.chain_ids":
		return c.EVM.ChainIDs, nil
	case "cosmos.gas":
		return c.Cosmos.Gas, nil
	case "cosmos.fee":
		return c.Cosmos.Fee, nil
	}
	return nil, unknownKey(map[string]string{"section": section})
}

func setChainValue(c *config.Config, section, chainID string, v uint64) {
	put := func(m *map[string]uint64) {
		if *m == nil {
			*m = make(map[string]uint64)
		}
		(*m)[chainID] = v
	}
	switch section {
	case "utxo.dust_limits":
		put(&c.UTXO.DustLimits)
	case "evm.chain_ids":
		put(&c.EVM.ChainIDs)
	case "cosmos.gas":
		put(&c.Cosmos.Gas)
	case "cosmos.fee":
		put(&c.Cosmos.Fee)
	}
}

func parseUintValue(key, value string) (uint64, error) {
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, invalidValue(key, value, "a non-negative integer")
	}
	return v, nil
}

func invalidValue(key, value, valid string) error {
	return coreerr.WithDetails(
		coreerr.Newf(coreerr.ErrInvalidFormat, "invalid value for %s", key),
		map[string]string{"value": value, "valid": valid},
	)
}
