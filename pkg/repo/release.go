package repo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/djcass44/aptforge/pkg/debfile"
	"github.com/go-logr/logr"
	"golang.org/x/exp/maps"
)

const suite = "stable"

type fileDigest struct {
	Size   int64
	MD5    string
	SHA256 string
}

// trackedFiles is the explicit list of index files whose checksums the
// Release file must carry. It is enumerated from configuration rather than
// globbed off disk, so an unexpected file in dists/ can never leak into the
// Release and a missing one can never be silently dropped.
func (a *Assembler) trackedFiles() []string {
	var out []string
	for _, component := range a.spec.Components {
		for _, arch := range a.spec.Architectures {
			dir := path.Join(component, "binary-"+arch)
			out = append(out,
				path.Join(dir, "Packages"),
				path.Join(dir, "Packages.gz"),
				path.Join(dir, "Packages.xz"),
				path.Join(dir, "Release"),
			)
		}
	}
	sort.Strings(out)
	return out
}

// BuildRelease renders the Release file for one codename from the index
// files already written under dists/<codename>/. Every tracked file must
// exist; a missing one is ErrMissingArtifact.
func (a *Assembler) BuildRelease(ctx context.Context, codename string) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("codename", codename)

	distDir := filepath.Join(a.spec.Root, "dists", codename)
	digests := make(map[string]fileDigest)
	for _, rel := range a.trackedFiles() {
		full := filepath.Join(distDir, filepath.FromSlash(rel))
		f, err := os.Open(filepath.Clean(full))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: dists/%s/%s", ErrMissingArtifact, codename, rel)
			}
			return nil, err
		}
		size, md5sum, sha256sum, err := debfile.Digest(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		digests[rel] = fileDigest{Size: size, MD5: md5sum, SHA256: sha256sum}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Origin: %s\n", a.spec.Origin)
	fmt.Fprintf(&buf, "Label: %s\n", a.spec.Label)
	fmt.Fprintf(&buf, "Suite: %s\n", suite)
	fmt.Fprintf(&buf, "Codename: %s\n", codename)
	fmt.Fprintf(&buf, "Date: %s\n", a.now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Architectures: %s\n", strings.Join(a.spec.Architectures, " "))
	fmt.Fprintf(&buf, "Components: %s\n", strings.Join(a.spec.Components, " "))
	fmt.Fprintf(&buf, "Description: %s\n", a.spec.Description)

	paths := maps.Keys(digests)
	sort.Strings(paths)

	buf.WriteString("MD5Sum:\n")
	for _, p := range paths {
		d := digests[p]
		fmt.Fprintf(&buf, " %s %d %s\n", d.MD5, d.Size, p)
	}
	buf.WriteString("SHA256:\n")
	for _, p := range paths {
		d := digests[p]
		fmt.Fprintf(&buf, " %s %d %s\n", d.SHA256, d.Size, p)
	}

	log.V(1).Info("built release descriptor", "files", len(paths))
	return buf.Bytes(), nil
}
