package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/export"
	"github.com/litgraph/litgraph/internal/literature"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [lid...]",
	Short: "Export entities as BibTeX",
	Long: `Export entities as BibTeX records, keyed by LID. With no arguments
every stored entity is exported; otherwise only the named LIDs.

Example:
  litgraph export > library.bib
  litgraph export 2017-vaswani-ayn-3f2a`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	_, _, db := openRepo()
	defer db.Close()

	var entities []literature.Entity
	if len(args) == 0 {
		all, err := db.ListAll(0)
		if err != nil {
			exitWithError(ExitError, "listing entities: %v", err)
		}
		entities = all
	} else {
		for _, lid := range args {
			e, err := lookupEntity(db, lid)
			if err != nil {
				exitWithError(ExitError, "looking up entity: %v", err)
			}
			if e == nil {
				exitWithError(ExitDataError, "entity not found: %s", lid)
			}
			entities = append(entities, *e)
		}
	}

	// Placeholders have no real metadata worth exporting.
	exportable := entities[:0]
	for _, e := range entities {
		if literature.IsPlaceholderTitle(e.Meta.Title) {
			continue
		}
		exportable = append(exportable, e)
	}

	fmt.Print(export.ToBibTeXList(exportable))
	return nil
}
