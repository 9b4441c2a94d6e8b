package repo

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/djcass44/aptforge/pkg/debfile"
	"github.com/go-logr/logr"
	"github.com/ulikunitz/xz"
)

// PoolEntry is a package staged in the pool together with its
// repository-relative location.
type PoolEntry struct {
	Package *debfile.Package
	// Filename is the pool-relative path using forward slashes, exactly as
	// written into the Packages index.
	Filename string
}

// ScanPool walks pool/ under the repository root and loads the metadata of
// every .deb it finds. The walk is lexicographic, which keeps index output
// deterministic across runs. Unreadable files are logged and skipped.
func (a *Assembler) ScanPool(ctx context.Context) ([]PoolEntry, error) {
	log := logr.FromContextOrDiscard(ctx)

	poolDir := filepath.Join(a.spec.Root, "pool")
	var entries []PoolEntry
	err := filepath.WalkDir(poolDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".deb") {
			return nil
		}
		pkg, err := debfile.Load(ctx, path)
		if err != nil {
			if errors.Is(err, debfile.ErrMetadata) {
				log.Info("skipping unreadable pool entry", "file", path, "err", err.Error())
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(a.spec.Root, path)
		if err != nil {
			return err
		}
		entries = append(entries, PoolEntry{Package: pkg, Filename: filepath.ToSlash(rel)})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		// an empty repository is a valid repository
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.V(1).Info("scanned pool", "count", len(entries))
	return entries, nil
}

// BuildIndex renders the Packages file for one architecture. Packages whose
// architecture is "all" are included in every index.
func BuildIndex(entries []PoolEntry, arch string) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		if e.Package.Architecture != arch && e.Package.Architecture != "all" {
			continue
		}
		buf.WriteString(e.Package.Control)
		fmt.Fprintf(&buf, "Filename: %s\n", e.Filename)
		fmt.Fprintf(&buf, "Size: %d\n", e.Package.Size)
		fmt.Fprintf(&buf, "MD5sum: %s\n", e.Package.MD5)
		fmt.Fprintf(&buf, "SHA256: %s\n", e.Package.SHA256)
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// writeIndexFiles writes Packages plus its gzip and xz siblings, and the
// per-architecture Release stub, into dists/<codename>/<component>/binary-<arch>/.
func (a *Assembler) writeIndexFiles(ctx context.Context, codename, component, arch string, content []byte) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("codename", codename, "component", component, "arch", arch)

	dir := filepath.Join(a.spec.Root, "dists", codename, component, "binary-"+arch)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, "Packages"), content, 0644); err != nil {
		return err
	}

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	if _, err := gw.Write(content); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "Packages.gz"), gzBuf.Bytes(), 0644); err != nil {
		return err
	}

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	if err != nil {
		return err
	}
	if _, err := xw.Write(content); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "Packages.xz"), xzBuf.Bytes(), 0644); err != nil {
		return err
	}

	stub := a.archReleaseStub(component, arch)
	if err := os.WriteFile(filepath.Join(dir, "Release"), stub, 0644); err != nil {
		return err
	}

	log.V(1).Info("wrote package index", "bytes", len(content))
	return nil
}

// archReleaseStub is the small Release file APT expects next to each
// binary-<arch>/Packages index.
func (a *Assembler) archReleaseStub(component, arch string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Archive: %s\n", suite)
	fmt.Fprintf(&buf, "Origin: %s\n", a.spec.Origin)
	fmt.Fprintf(&buf, "Label: %s\n", a.spec.Label)
	fmt.Fprintf(&buf, "Component: %s\n", component)
	fmt.Fprintf(&buf, "Architecture: %s\n", arch)
	return buf.Bytes()
}
