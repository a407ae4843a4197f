package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/config"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set repository configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the repository configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Keys: pdf_root, s2_api_key, max_attempts.

Example:
  litgraph config set pdf_root ~/papers`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// UpdateResponse is the response for config set.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	_, cfg, db := openRepo()
	db.Close()

	if !humanOutput {
		return outputJSON(cfg)
	}
	outputHuman("pdf_root:     %s\n", cfg.PDFRoot)
	outputHuman("max_attempts: %d\n", cfg.MaxAttempts)
	if cfg.S2APIKey != "" {
		outputHuman("s2_api_key:   (set)\n")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	repoRoot, cfg, db := openRepo()
	db.Close()

	key, value := args[0], args[1]
	switch key {
	case "pdf_root":
		if err := config.ValidatePDFRoot(value); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		cfg.PDFRoot = config.ExpandPath(value)
	case "s2_api_key":
		cfg.S2APIKey = value
	case "max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			exitWithError(ExitDataError, "max_attempts must be a positive integer")
		}
		cfg.MaxAttempts = n
	default:
		exitWithError(ExitDataError, "unknown config key: %s", key)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		outputHuman("%s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}
