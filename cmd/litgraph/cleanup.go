package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/literature"
)

var cleanupFlags struct {
	staleAfter time.Duration
	dryRun     bool
}

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupFlags.staleAfter, "stale-after", time.Hour,
		"Age past which an unfinished placeholder counts as abandoned")
	cleanupCmd.Flags().BoolVar(&cleanupFlags.dryRun, "dry-run", false,
		"Report what would be removed without removing it")
	rootCmd.AddCommand(cleanupCmd)
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove failed entities and abandoned placeholders",
	Long: `Remove entities whose resolution failed outright and placeholder
entities abandoned by a crashed or interrupted task. The identifiers they
held become available to later resolution requests.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

// CleanupResponse reports a cleanup pass.
type CleanupResponse struct {
	Removed []string `json:"removed"`
	DryRun  bool     `json:"dry_run,omitempty"`
}

func runCleanup(cmd *cobra.Command, args []string) error {
	_, _, db := openRepo()
	defer db.Close()

	entities, err := db.ListAll(0)
	if err != nil {
		exitWithError(ExitError, "reading repository: %v", err)
	}

	cutoff := time.Now().Add(-cleanupFlags.staleAfter)
	resp := CleanupResponse{Removed: []string{}, DryRun: cleanupFlags.dryRun}

	for _, e := range entities {
		failed := e.Components.Overall() == literature.OverallFailed
		abandoned := e.IsPlaceholder() && e.UpdatedAt.Before(cutoff)
		if !failed && !abandoned {
			continue
		}
		if !cleanupFlags.dryRun {
			if err := db.DeleteByLID(e.LID); err != nil {
				exitWithError(ExitError, "removing %s: %v", e.LID, err)
			}
		}
		resp.Removed = append(resp.Removed, e.LID)
	}

	if !humanOutput {
		return outputJSON(resp)
	}
	verb := "removed"
	if cleanupFlags.dryRun {
		verb = "would remove"
	}
	outputHuman("%s %d entities\n", verb, len(resp.Removed))
	for _, lid := range resp.Removed {
		outputHuman("  %s\n", lid)
	}
	return nil
}
