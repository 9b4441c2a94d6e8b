package repo

import (
	"path/filepath"
	"testing"

	"github.com/djcass44/aptforge/internal/debtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune(t *testing.T) {
	ctx := testContext(t)
	spec := testSpec(t)
	input := t.TempDir()
	// 1.10.0 is newer than 1.9.0 under Debian ordering, though not lexically
	debtest.Write(t, input, "redis-custom", "1.9.0-1", "amd64")
	debtest.Write(t, input, "redis-custom", "1.10.0-1", "amd64")
	debtest.Write(t, input, "redis-custom", "1.8.0-1", "amd64")

	a := NewAssembler(spec)
	_, err := a.ImportPackages(ctx, input)
	require.NoError(t, err)

	removed, err := a.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Contains(t, removed, "pool/main/r/redis-custom/redis-custom_1.8.0-1_amd64.deb")
	assert.Contains(t, removed, "pool/main/r/redis-custom/redis-custom_1.9.0-1_amd64.deb")
	assert.FileExists(t, filepath.Join(spec.Root, "pool", "main", "r", "redis-custom", "redis-custom_1.10.0-1_amd64.deb"))
}

func TestPrune_KeepsDistinctArchitectures(t *testing.T) {
	ctx := testContext(t)
	spec := testSpec(t)
	input := t.TempDir()
	debtest.Write(t, input, "caddy-custom", "2.8.0-1", "amd64")
	debtest.Write(t, input, "caddy-custom", "2.8.0-1", "arm64")

	a := NewAssembler(spec)
	_, err := a.ImportPackages(ctx, input)
	require.NoError(t, err)

	removed, err := a.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestPrune_RejectsZeroKeep(t *testing.T) {
	a := NewAssembler(testSpec(t))
	_, err := a.Prune(testContext(t), 0)
	assert.Error(t, err)
}
