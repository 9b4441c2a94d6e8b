package debfile

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"pault.ag/go/debian/control"
)

// ErrMetadata marks a file whose control metadata could not be read, either
// because it is not a Debian archive or because it is corrupt. Callers are
// expected to skip such files rather than abort.
var ErrMetadata = errors.New("unreadable package metadata")

// Package is the control metadata and content digests of a single .deb file.
type Package struct {
	Name         string
	Version      string
	Architecture string

	// Control is the raw control paragraph, kept verbatim so that every
	// field the package declares survives into the Packages index.
	Control string

	Path   string
	Size   int64
	MD5    string
	SHA256 string
}

// fields we need typed access to; everything else stays in the raw paragraph
type controlFields struct {
	Package      string
	Version      string
	Architecture string
}

// Load reads the control paragraph out of a .deb file and computes the
// file's size and digests in a single pass over the archive.
func Load(ctx context.Context, path string) (*Package, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	size, md5sum, sha256sum, err := Digest(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	raw, err := readControl(f)
	if err != nil {
		log.V(1).Info("failed to read control metadata", "err", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, path, err)
	}

	var out []controlFields
	dec, err := control.NewDecoder(strings.NewReader(raw), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, path, err)
	}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, path, err)
	}
	if len(out) == 0 || out[0].Package == "" || out[0].Architecture == "" {
		return nil, fmt.Errorf("%w: %s: control paragraph missing required fields", ErrMetadata, path)
	}

	log.V(2).Info("loaded package metadata", "name", out[0].Package, "version", out[0].Version, "arch", out[0].Architecture)
	return &Package{
		Name:         out[0].Package,
		Version:      out[0].Version,
		Architecture: out[0].Architecture,
		Control:      raw,
		Path:         path,
		Size:         size,
		MD5:          md5sum,
		SHA256:       sha256sum,
	}, nil
}

// readControl walks the outer ar archive looking for the control tarball
// and returns the contents of its "control" member.
func readControl(r io.Reader) (string, error) {
	tr := ar.NewReader(r)
	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			return "", errors.New("control archive not found")
		case err != nil:
			return "", err
		case header == nil:
			continue
		}

		// GNU ar appends a trailing slash to member names
		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		if !strings.HasPrefix(name, "control.tar") {
			continue
		}

		body, err := decompress(name, tr)
		if err != nil {
			return "", err
		}
		defer body.Close()
		return controlFromTar(body)
	}
}

func decompress(name string, r io.Reader) (io.ReadCloser, error) {
	switch filepath.Ext(name) {
	case ".tar":
		return io.NopCloser(r), nil
	case ".gz":
		return gzip.NewReader(r)
	case ".xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported control compression: %s", name)
	}
}

func controlFromTar(r io.Reader) (string, error) {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			return "", errors.New("control file missing from archive")
		case err != nil:
			return "", err
		case header == nil:
			continue
		}
		if filepath.Base(header.Name) != "control" {
			continue
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return "", err
		}
		return normalise(buf.String()), nil
	}
}

// normalise trims trailing blank lines and guarantees a single trailing
// newline so paragraphs concatenate cleanly.
func normalise(s string) string {
	return strings.TrimRight(s, "\n") + "\n"
}
