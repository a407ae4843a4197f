package main

import (
	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/identity"
	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/store"
)

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultListLimit, "Maximum entities to list")
}

var getCmd = &cobra.Command{
	Use:   "get <lid-or-identifier>",
	Short: "Get a single entity by LID, DOI, or arXiv id",
	Long: `Get a single entity. The argument may be a LID, a DOI, or an
arXiv id; non-LID arguments are looked up by identifier.

Example:
  litgraph get 2017-vaswani-ayn-3f2a
  litgraph get 10.48550/arXiv.1706.03762`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored entities",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runGet(cmd *cobra.Command, args []string) error {
	_, _, db := openRepo()
	defer db.Close()

	entity, err := lookupEntity(db, args[0])
	if err != nil {
		exitWithError(ExitError, "looking up entity: %v", err)
	}
	if entity == nil {
		exitWithError(ExitDataError, "entity not found: %s", args[0])
	}

	if humanOutput {
		printEntityDetail(entity)
	} else {
		outputJSON(entity)
	}
	return nil
}

// lookupEntity resolves the argument by LID first, then by identifier.
func lookupEntity(db *store.DB, arg string) (*literature.Entity, error) {
	if identity.Valid(arg) {
		return db.GetByLID(arg)
	}
	if e, err := db.FindByDOI(arg); err != nil || e != nil {
		return e, err
	}
	return db.FindByArxivID(arg)
}

func runList(cmd *cobra.Command, args []string) error {
	_, _, db := openRepo()
	defer db.Close()

	entities, err := db.ListAll(listLimit)
	if err != nil {
		exitWithError(ExitError, "listing entities: %v", err)
	}

	if humanOutput {
		for _, e := range entities {
			outputHuman("%-28s %-10s %s\n",
				e.LID, e.Components.Overall(), truncateString(e.Meta.Title, ListTitleMaxLen))
		}
		return nil
	}
	return outputJSON(entities)
}
