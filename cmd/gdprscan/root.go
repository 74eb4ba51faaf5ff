package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gdprscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gdprscan",
		Short: "GDPR compliance-page scanner for websites",
		Long: `gdprscan analyzes websites for GDPR compliance pages: privacy policy,
cookie declaration, data retention, data deletion, and DPO contact.

Each site is loaded in a headless browser, the cookie-consent banner is
handled according to the chosen scenario, and the set cookies are recorded.
A local Ollama model classifies page content and picks candidate links;
when the model is unavailable a deterministic keyword scorer takes over.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
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
