// Package main provides the litgraph CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables engine logging to stderr
var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "litgraph",
	Short: "Literature resolution and citation graph engine",
	Long: `litgraph resolves paper identifiers (DOI, arXiv id, PubMed id, URLs)
into deduplicated literature entities and maintains the citation graph
between them.

Metadata is fetched through a waterfall of sources, merged by quality,
and stored in a local SQLite repository. All commands output JSON by
default for easy integration with agents and other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine activity to stderr")
	rootCmd.Version = Version
}

// getRepoRoot returns the working root, or exits with an error.
func getRepoRoot() (string, int) {
	if root := os.Getenv("LITGRAPH_ROOT"); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// newLogger builds the engine logger. Quiet unless --verbose is set.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
