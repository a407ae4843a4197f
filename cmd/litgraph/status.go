package main

import (
	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/literature"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [lid]",
	Short: "Show repository totals or one entity's component statuses",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

// RepoStatusResponse summarizes the repository.
type RepoStatusResponse struct {
	Entities int            `json:"entities"`
	ByStatus map[string]int `json:"by_status"`
	RepoRoot string         `json:"repo_root"`
}

// EntityStatusResponse reports one entity's processing state.
type EntityStatusResponse struct {
	LID        string                   `json:"lid"`
	Overall    literature.OverallStatus `json:"overall"`
	Components literature.ComponentSet  `json:"components"`
	Quality    int                      `json:"quality_score"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	repoRoot, _, db := openRepo()
	defer db.Close()

	if len(args) == 1 {
		entity, err := lookupEntity(db, args[0])
		if err != nil {
			exitWithError(ExitError, "looking up entity: %v", err)
		}
		if entity == nil {
			exitWithError(ExitDataError, "entity not found: %s", args[0])
		}

		resp := EntityStatusResponse{
			LID:        entity.LID,
			Overall:    entity.Components.Overall(),
			Components: entity.Components,
			Quality:    entity.QualityScore,
		}
		if !humanOutput {
			return outputJSON(resp)
		}
		outputHuman("%s: %s\n", resp.LID, resp.Overall)
		outputHuman("  metadata:   %s\n", entity.Components.Metadata.Status)
		outputHuman("  content:    %s\n", entity.Components.Content.Status)
		outputHuman("  references: %s\n", entity.Components.References.Status)
		outputHuman("  quality:    %d\n", resp.Quality)
		return nil
	}

	entities, err := db.ListAll(0)
	if err != nil {
		exitWithError(ExitError, "reading repository: %v", err)
	}

	byStatus := map[string]int{}
	for _, e := range entities {
		byStatus[string(e.Components.Overall())]++
	}
	resp := RepoStatusResponse{
		Entities: len(entities),
		ByStatus: byStatus,
		RepoRoot: repoRoot,
	}
	if !humanOutput {
		return outputJSON(resp)
	}
	outputHuman("%d entities in %s\n", resp.Entities, resp.RepoRoot)
	for status, n := range byStatus {
		outputHuman("  %-20s %d\n", status, n)
	}
	return nil
}
