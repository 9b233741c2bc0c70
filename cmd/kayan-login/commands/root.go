// Package commands implements the kayan-login command line.
package commands

import (
	"github.com/getkayan/kayan-login/core/config"
	"github.com/getkayan/kayan-login/core/logger"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"

	// Global flags.
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "kayan-login",
	Short: "Kayan login modules",
	Long: `kayan-login drives pluggable login modules from the command line.

It can hash secrets for password files, run a full login/commit/logout
cycle against a configured module and check that credential stores are
reachable.

Use "kayan-login [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logger.InitLogger(logLevel)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file listing login modules")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(checkStoreCmd)
}

// loadConfig reads the --config file and initialises logging from it
// unless --log-level was given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logger.InitLogger(cfg.LogLevel)
	}
	return cfg, nil
}
