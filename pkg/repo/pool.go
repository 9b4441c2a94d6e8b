package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/djcass44/aptforge/pkg/debfile"
	"github.com/go-logr/logr"
)

// PoolPath returns the canonical pool location for a package file:
// pool/<component>/<first-char-of-name>/<name>/<basename>.
// The name comes from the package's control metadata, never the filename.
func PoolPath(component, name, basename string) string {
	return filepath.Join("pool", component, name[:1], name, basename)
}

// ImportPackages copies every .deb found in inputDir into its pool location
// under root. Files whose control metadata cannot be read are logged and
// skipped. Re-running over the same input is a no-op: a byte-identical file
// already in place is left alone, while a different file at the same pool
// path is a conflict and fails the import.
func (a *Assembler) ImportPackages(ctx context.Context, inputDir string) ([]*debfile.Package, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("input", inputDir)

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".deb") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var imported []*debfile.Package
	for _, name := range names {
		src := filepath.Join(inputDir, name)
		pkg, err := debfile.Load(ctx, src)
		if err != nil {
			if errors.Is(err, debfile.ErrMetadata) {
				log.Info("skipping unreadable package", "file", name, "err", err.Error())
				continue
			}
			return nil, err
		}

		rel := PoolPath(a.spec.Components[0], pkg.Name, name)
		dst := filepath.Join(a.spec.Root, rel)
		if err := copyIntoPool(ctx, src, dst, pkg.SHA256); err != nil {
			return nil, err
		}
		log.V(1).Info("staged package", "name", pkg.Name, "version", pkg.Version, "arch", pkg.Architecture, "pool", rel)
		imported = append(imported, pkg)
	}
	log.Info("imported packages", "count", len(imported))
	return imported, nil
}

func copyIntoPool(ctx context.Context, src, dst, wantSHA256 string) error {
	log := logr.FromContextOrDiscard(ctx)

	if _, err := os.Stat(dst); err == nil {
		same, err := sameContent(src, dst)
		if err != nil {
			return err
		}
		if same {
			log.V(2).Info("pool entry already present", "dst", dst)
			return nil
		}
		return fmt.Errorf("pool conflict: %s exists with different content (expected sha256 %s)", dst, wantSHA256)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer in.Close()

	// write-then-rename so a crashed run never leaves a torn pool entry
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".staging-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func sameContent(a, b string) (bool, error) {
	ab, err := os.ReadFile(filepath.Clean(a))
	if err != nil {
		return false, err
	}
	bb, err := os.ReadFile(filepath.Clean(b))
	if err != nil {
		return false, err
	}
	return bytes.Equal(ab, bb), nil
}
