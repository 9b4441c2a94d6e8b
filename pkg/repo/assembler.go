package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	v1 "github.com/djcass44/aptforge/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/gofrs/flock"
)

// lockFile guards a full update cycle. Two assemblers racing to rewrite the
// same Release file would publish an inconsistent tree.
const lockFile = ".aptforge.lock"

// Assembler turns a pool of .deb files into a complete APT repository tree
// under the configured root.
type Assembler struct {
	spec   v1.RepositorySpec
	signer *openpgp.Entity
	now    func() time.Time
}

type Option func(*Assembler)

// WithSigner configures the entity used to produce InRelease and Release.gpg.
func WithSigner(e *openpgp.Entity) Option {
	return func(a *Assembler) {
		a.signer = e
	}
}

// WithClock pins the timestamp written into Release files.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(spec v1.RepositorySpec, opts ...Option) *Assembler {
	a := &Assembler{
		spec: spec.Defaulted(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Update runs one full assembly cycle: import the input directory into the
// pool, regenerate every Packages index and Release descriptor, then sign.
// The cycle holds an advisory lock on the repository root throughout.
func (a *Assembler) Update(ctx context.Context, inputDir string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("root", a.spec.Root)

	unlock, err := a.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if inputDir != "" {
		if _, err := a.ImportPackages(ctx, inputDir); err != nil {
			return err
		}
	}

	entries, err := a.ScanPool(ctx)
	if err != nil {
		return err
	}

	for _, codename := range a.spec.Codenames {
		for _, component := range a.spec.Components {
			for _, arch := range a.spec.Architectures {
				content := BuildIndex(entries, arch)
				if err := a.writeIndexFiles(ctx, codename, component, arch, content); err != nil {
					return err
				}
			}
		}

		release, err := a.BuildRelease(ctx, codename)
		if err != nil {
			return err
		}
		distDir := filepath.Join(a.spec.Root, "dists", codename)
		if err := os.WriteFile(filepath.Join(distDir, "Release"), release, 0644); err != nil {
			return err
		}
		if err := a.signRelease(ctx, distDir, release); err != nil {
			return err
		}
		log.Info("updated distribution", "codename", codename, "packages", len(entries))
	}

	return a.exportPublicKey(ctx)
}

func (a *Assembler) lock(ctx context.Context) (func(), error) {
	log := logr.FromContextOrDiscard(ctx)

	if err := os.MkdirAll(a.spec.Root, 0755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(a.spec.Root, lockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	log.V(2).Info("acquired repository lock", "path", fl.Path())
	return func() {
		_ = fl.Unlock()
	}, nil
}
