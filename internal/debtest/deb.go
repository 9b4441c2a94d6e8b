// Package debtest builds minimal but well-formed .deb files for tests.
package debtest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/stretchr/testify/require"
)

// Control returns a realistic control paragraph for the given identity.
func Control(name, version, arch string) string {
	return fmt.Sprintf("Package: %s\nVersion: %s\nArchitecture: %s\nMaintainer: Test Suite <test@example.org>\nDescription: test package\n", name, version, arch)
}

// Write creates a .deb at dir/<name>_<version>_<arch>.deb and returns its path.
func Write(t *testing.T, dir, name, version, arch string) string {
	t.Helper()
	return WriteControl(t, dir, fmt.Sprintf("%s_%s_%s.deb", name, version, arch), Control(name, version, arch))
}

// WriteControl creates a .deb with the given file name and raw control paragraph.
func WriteControl(t *testing.T, dir, filename, control string) string {
	t.Helper()

	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())

	writeMember(t, w, "debian-binary", []byte("2.0\n"))
	writeMember(t, w, "control.tar.gz", tarball(t, "./control", []byte(control)))
	writeMember(t, w, "data.tar.gz", tarball(t, "./usr/share/doc/placeholder", []byte("placeholder\n")))

	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func writeMember(t *testing.T, w *ar.Writer, name string, body []byte) {
	t.Helper()
	require.NoError(t, w.WriteHeader(&ar.Header{
		Name:    name,
		ModTime: time.Unix(0, 0),
		Mode:    0644,
		Size:    int64(len(body)),
	}))
	_, err := w.Write(body)
	require.NoError(t, err)
}

func tarball(t *testing.T, name string, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(body)),
		ModTime: time.Unix(0, 0),
	}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}
