package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-logr/logr"
	version "github.com/knqyf263/go-deb-version"
)

// Prune removes superseded package versions from the pool, keeping the
// newest keep versions of every (name, architecture) pair by Debian version
// ordering. Pool entries are never removed by Update; pruning is only ever
// this explicit operation. The caller should run Update afterwards to
// regenerate the indices. Returns the pool-relative paths that were removed.
func (a *Assembler) Prune(ctx context.Context, keep int) ([]string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("root", a.spec.Root, "keep", keep)

	if keep < 1 {
		return nil, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	unlock, err := a.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := a.ScanPool(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]PoolEntry)
	for _, e := range entries {
		key := e.Package.Name + "|" + e.Package.Architecture
		groups[key] = append(groups[key], e)
	}

	var removed []string
	for _, group := range groups {
		if len(group) <= keep {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			vi, erri := version.NewVersion(group[i].Package.Version)
			vj, errj := version.NewVersion(group[j].Package.Version)
			if erri != nil || errj != nil {
				// unparseable versions sort last so they are pruned first
				return errj != nil && erri == nil
			}
			return vi.GreaterThan(vj)
		})
		for _, e := range group[keep:] {
			full := filepath.Join(a.spec.Root, filepath.FromSlash(e.Filename))
			if err := os.Remove(full); err != nil {
				return removed, err
			}
			log.Info("pruned superseded package", "name", e.Package.Name, "version", e.Package.Version, "arch", e.Package.Architecture)
			removed = append(removed, e.Filename)
		}
	}
	sort.Strings(removed)
	return removed, nil
}
