package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/store"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new litgraph repository",
	Long: `Initialize a new litgraph repository in the current directory.

Creates:
  .litgraph/
  ├── config.yaml     # Default config
  └── litgraph.db     # Entity and citation database`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getRepoRoot()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a litgraph repository")
	}

	if err := config.Init(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	// Opening the database once creates the schema.
	db, err := store.Open(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "creating database: %v", err)
	}
	db.Close()

	if humanOutput {
		outputHuman("Initialized litgraph repository in %s\n", config.LitgraphPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.LitgraphPath(root)})
	}
	return nil
}
