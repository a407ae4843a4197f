package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(aliasesCmd)
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases <lid>",
	Short: "List the alias mappings pointing at an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runAliases,
}

func runAliases(cmd *cobra.Command, args []string) error {
	_, _, db := openRepo()
	defer db.Close()

	aliases, err := db.AliasesByLID(args[0])
	if err != nil {
		exitWithError(ExitError, "listing aliases: %v", err)
	}

	if !humanOutput {
		return outputJSON(aliases)
	}
	for _, a := range aliases {
		outputHuman("%-12s %s\n", a.Kind, a.Value)
	}
	return nil
}
