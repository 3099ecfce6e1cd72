// Package main provides the phpast CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	formatJSON    = "json"
	formatCompact = "compact"
	formatYAML    = "yaml"
	formatTree    = "tree"
	formatNone    = "none"
)

// exitCodeMalformedInput is returned when validate cannot read its input.
const exitCodeMalformedInput = 2

var (
	cfgFile string //nolint:gochecknoglobals // CLI flag variable
	verbose bool   //nolint:gochecknoglobals // CLI flag variable
	quiet   bool   //nolint:gochecknoglobals // CLI flag variable
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if errors.Is(err, ErrMalformedInput) {
			os.Exit(exitCodeMalformedInput)
		}

		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phpast",
		Short: "Convert PHP source into the canonical php-ast tree",
		Long: `phpast parses PHP with a fault-tolerant parser and normalizes the
concrete syntax tree into the versioned php-ast node shape.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.phpast.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress diagnostics and progress")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(lspCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}
