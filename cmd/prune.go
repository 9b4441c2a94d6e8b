package cmd

import (
	"github.com/djcass44/aptforge/pkg/repo"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove superseded package versions from the pool",
	Long: "Removes old versions of each package from the pool, keeping the newest N. " +
		"Run update afterwards to regenerate the indices.",
	RunE: prune,
}

const flagKeep = "keep"

func init() {
	pruneCmd.Flags().StringP(flagConfig, "c", "", "path to a repository configuration file")
	pruneCmd.Flags().Int(flagKeep, 3, "number of versions of each package to keep")

	_ = pruneCmd.MarkFlagRequired(flagConfig)
	_ = pruneCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml")
}

func prune(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	configPath, _ := cmd.Flags().GetString(flagConfig)
	keep, _ := cmd.Flags().GetInt(flagKeep)

	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}

	assembler := repo.NewAssembler(cfg.Spec)
	removed, err := assembler.Prune(cmd.Context(), keep)
	if err != nil {
		return err
	}
	log.Info("prune complete", "removed", len(removed))
	return nil
}
