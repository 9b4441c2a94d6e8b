package repo

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/djcass44/aptforge/internal/debtest"
	"github.com/djcass44/aptforge/pkg/debfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checksumEntry struct {
	digest string
	size   string
}

// parseChecksums pulls one checksum section out of a Release document,
// keyed by the listed relative path.
func parseChecksums(t *testing.T, release, section string) map[string]checksumEntry {
	t.Helper()
	out := make(map[string]checksumEntry)
	var in bool
	for _, line := range strings.Split(release, "\n") {
		if strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " ") {
			in = line == section+":"
			continue
		}
		if !in || !strings.HasPrefix(line, " ") {
			continue
		}
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		out[fields[2]] = checksumEntry{digest: fields[0], size: fields[1]}
	}
	return out
}

func buildRepo(t *testing.T) (*Assembler, string) {
	t.Helper()
	ctx := testContext(t)
	spec := testSpec(t)
	input := t.TempDir()
	debtest.Write(t, input, "pkga", "1.0", "amd64")
	debtest.Write(t, input, "pkgb", "2.0", "all")

	a := NewAssembler(spec, WithClock(fixedClock("2026-08-29T12:00:00Z")))
	require.NoError(t, a.Update(ctx, input))
	return a, spec.Root
}

func TestBuildRelease_ChecksumsMatchDisk(t *testing.T) {
	_, root := buildRepo(t)

	release, err := os.ReadFile(filepath.Join(root, "dists", "noble", "Release"))
	require.NoError(t, err)

	for _, section := range []string{"MD5Sum", "SHA256"} {
		entries := parseChecksums(t, string(release), section)
		require.NotEmpty(t, entries)
		for rel, want := range entries {
			f, err := os.Open(filepath.Join(root, "dists", "noble", filepath.FromSlash(rel)))
			require.NoError(t, err)
			size, md5sum, sha256sum, err := debfile.Digest(f)
			_ = f.Close()
			require.NoError(t, err)

			got := md5sum
			if section == "SHA256" {
				got = sha256sum
			}
			assert.Equal(t, want.digest, got, "%s digest of %s", section, rel)
			assert.Equal(t, want.size, strconv.FormatInt(size, 10), "size of %s", rel)
		}
	}
}

func TestBuildRelease_SectionsCoverSamePaths(t *testing.T) {
	_, root := buildRepo(t)

	release, err := os.ReadFile(filepath.Join(root, "dists", "noble", "Release"))
	require.NoError(t, err)

	md5s := parseChecksums(t, string(release), "MD5Sum")
	sha256s := parseChecksums(t, string(release), "SHA256")
	require.NotEmpty(t, md5s)
	assert.Len(t, sha256s, len(md5s))
	for rel := range md5s {
		assert.Contains(t, sha256s, rel)
	}
}

func TestBuildRelease_Header(t *testing.T) {
	_, root := buildRepo(t)

	release, err := os.ReadFile(filepath.Join(root, "dists", "noble", "Release"))
	require.NoError(t, err)
	s := string(release)

	assert.Contains(t, s, "Origin: Test\n")
	assert.Contains(t, s, "Label: test\n")
	assert.Contains(t, s, "Suite: stable\n")
	assert.Contains(t, s, "Codename: noble\n")
	assert.Contains(t, s, "Architectures: amd64 arm64\n")
	assert.Contains(t, s, "Components: main\n")
	assert.Contains(t, s, "Date: Fri, 29 Aug 2026 12:00:00 +0000\n")
}

func TestBuildRelease_MissingArtifact(t *testing.T) {
	a, root := buildRepo(t)

	require.NoError(t, os.Remove(filepath.Join(root, "dists", "noble", "main", "binary-arm64", "Packages.xz")))

	_, err := a.BuildRelease(testContext(t), "noble")
	assert.ErrorIs(t, err, ErrMissingArtifact)
	assert.ErrorContains(t, err, "main/binary-arm64/Packages.xz")
}
