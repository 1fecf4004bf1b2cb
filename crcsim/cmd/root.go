// Package cmd provides the command-line interface of crcsim.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	envFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "crcsim",
	Short: "crcsim replays memory access traces against cache replacement " +
		"policies.",
	Long: `crcsim replays memory access traces against cache replacement ` +
		`policies. It reports per-policy replacement statistics and can ` +
		`record every replacement decision into an SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return configureLogging(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env",
		"The file to load CRC_* settings from. Missing files are ignored.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"The logrus level, such as info or debug. Overrides CRC_LOG_LEVEL.")
}

func configureLogging(level string) error {
	if level == "" {
		return nil
	}

	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	logrus.SetLevel(l)

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
