// Package main provides the entry point for the textveil CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for textveil.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textveil",
		Short: "Layered content filter for HTML documents",
		Long: `Textveil scans HTML documents and veils text fragments that match
configured filters. Three layers run in order of cost: a keyword matcher,
a Chinese script-variant detector, and an optional AI classifier.

Filter failures never hide content: when a layer errors, the fragment
stays visible and the error is reported.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
