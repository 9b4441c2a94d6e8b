package cmd

import (
	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/djcass44/aptforge/cmd/cache"
	"github.com/djcass44/aptforge/pkg/downloader"
	"github.com/djcass44/aptforge/pkg/htmlindex"
	"github.com/djcass44/aptforge/pkg/repo"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "import packages and regenerate repository metadata",
	RunE:  update,
}

const (
	flagInput    = "input"
	flagSkipHTML = "skip-html"
)

func init() {
	updateCmd.Flags().StringP(flagConfig, "c", "", "path to a repository configuration file")
	updateCmd.Flags().StringP(flagInput, "i", "", "directory or url containing built .deb files")

	updateCmd.Flags().Bool(flagSkipHTML, false, "skip rendering of directory index pages")

	_ = updateCmd.MarkFlagRequired(flagConfig)
	_ = updateCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml")
}

func update(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	configPath, _ := cmd.Flags().GetString(flagConfig)
	input, _ := cmd.Flags().GetString(flagInput)
	skipHTML, _ := cmd.Flags().GetBool(flagSkipHTML)

	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}

	var opts []repo.Option
	if cfg.Spec.SigningKey != "" {
		signer, err := repo.LoadSigner(cfg.Spec.SigningKey)
		if err != nil {
			return err
		}
		opts = append(opts, repo.WithSigner(signer))
		log.V(1).Info("loaded signing key", "path", cfg.Spec.SigningKey, "fingerprint", fingerprint(signer))
	}

	if input != "" {
		dl, err := downloader.NewDownloader(cache.Dir(""))
		if err != nil {
			return err
		}
		input, err = dl.Fetch(cmd.Context(), input)
		if err != nil {
			return err
		}
	}

	assembler := repo.NewAssembler(cfg.Spec, opts...)
	if err := assembler.Update(cmd.Context(), input); err != nil {
		return err
	}

	if skipHTML {
		return nil
	}
	return htmlindex.Render(cmd.Context(), cfg.Spec.Root)
}

func fingerprint(e *openpgp.Entity) string {
	return e.PrimaryKey.KeyIdString()
}
