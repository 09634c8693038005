package cli

import (
	"github.com/spf13/cobra"
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	GroupID: "config",
	Long:    `Print the version, commit and build date of this binary.`,
	Example: `  chaincore version
  chaincore version -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cc := GetCmdContext(cmd)
		if cc.Fmt.IsJSON() {
			info := buildInfo
			if info.Version == "" {
				info.Version = "dev"
			}
			return cc.Fmt.Print(map[string]string{
				"version": info.Version,
				"commit":  info.Commit,
				"date":    info.Date,
			})
		}
		return cc.Fmt.Print("chaincore " + formatVersion(buildInfo))
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
