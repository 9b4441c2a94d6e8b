package cmd

import (
	"errors"

	"github.com/djcass44/aptforge/pkg/publish"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "mirror the repository to the object store",
	RunE:  runPublish,
}

const flagForce = "force"

func init() {
	publishCmd.Flags().StringP(flagConfig, "c", "", "path to a repository configuration file")
	publishCmd.Flags().Bool(flagForce, false, "publish even if the repository is unchanged")

	_ = publishCmd.MarkFlagRequired(flagConfig)
	_ = publishCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString(flagConfig)
	force, _ := cmd.Flags().GetBool(flagForce)

	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Spec.Publish == nil || cfg.Spec.Publish.Bucket == "" {
		return errors.New("no publish target configured")
	}

	client, err := publish.NewClient(cmd.Context(), *cfg.Spec.Publish)
	if err != nil {
		return err
	}
	pub := publish.NewPublisher(client, *cfg.Spec.Publish)
	return pub.Mirror(cmd.Context(), cfg.Spec.Root, force)
}
