// Package cli implements the dragnet command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Collector registration.
	_ "github.com/codeGROOVE-dev/dragnet/pkg/sources/courtrecords"
	_ "github.com/codeGROOVE-dev/dragnet/pkg/sources/obituaries"
	_ "github.com/codeGROOVE-dev/dragnet/pkg/sources/peoplefinder"
	_ "github.com/codeGROOVE-dev/dragnet/pkg/sources/propertyrecords"
	_ "github.com/codeGROOVE-dev/dragnet/pkg/sources/websearch"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dragnet",
	Short: "dragnet - evidence correlation and confidence scoring for person research",
	Long: `dragnet collects public records and search results about a person and
decides which of them actually refer to that person rather than a
namesake. Every finding gets a confidence score built from corroborating
facts (phone, email, address, location, relatives, keywords), and the
report separates confirmed matches from possible ones.

Confidence is an estimate, never proof. Scores cap below certainty and a
finding with nothing but a matching name is never confirmed.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("dragnet v" + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dragnet/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and DRAGNET_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.dragnet")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("DRAGNET")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// newLogger builds the slog logger shared by a command run.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose || viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
