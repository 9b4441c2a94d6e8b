package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes all staged package downloads",
	RunE:  clean,
}

const (
	flagStagingDir = "staging-dir"
)

func init() {
	cleanCmd.Flags().String(flagStagingDir, "", "staging directory (defaults to user cache dir)")
}

func clean(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	stagingDir, _ := cmd.Flags().GetString(flagStagingDir)
	stagingDir = Dir(stagingDir)

	log.Info("deleting staging dir", "dir", stagingDir)

	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("removing staging dir: %w", err)
	}
	return nil
}

// Dir resolves the staging directory, falling back to the user cache dir.
func Dir(d string) string {
	if d == "" {
		d, _ = os.UserCacheDir()
		d = filepath.Join(d, "aptforge")
	}
	return filepath.Clean(d)
}
