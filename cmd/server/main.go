package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "webdriver-mini",
	Short: "A W3C WebDriver remote end",
	Long: `webdriver-mini serves the W3C WebDriver protocol over HTTP. Sessions run
against an in-process HTML document backend or against remote agents reached
over a websocket bridge, optionally launched in docker containers per session.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "webdriver-mini %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
