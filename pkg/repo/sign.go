package repo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/go-logr/logr"
)

// LoadSigner reads an ASCII-armored keyring from disk and returns the first
// entity carrying a private key.
func LoadSigner(path string) (*openpgp.Entity, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("reading keyring %s: %w", path, err)
	}
	for _, e := range entities {
		if e.PrivateKey != nil {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no private key in %s", path)
}

// signRelease writes InRelease and Release.gpg next to the Release file in
// distDir. Stale signatures are removed up front so that a failed signing
// run can never leave a signature that does not match the current Release.
// With no signer configured the repository is published unsigned.
func (a *Assembler) signRelease(ctx context.Context, distDir string, release []byte) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("dir", distDir)

	inRelease := filepath.Join(distDir, "InRelease")
	releaseGPG := filepath.Join(distDir, "Release.gpg")
	for _, stale := range []string{inRelease, releaseGPG} {
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	if a.signer == nil {
		log.V(1).Info("no signing key configured, publishing unsigned")
		return nil
	}

	var clear bytes.Buffer
	w, err := clearsign.Encode(&clear, a.signer.PrivateKey, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}
	if _, err := w.Write(release); err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}

	var detached bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&detached, a.signer, bytes.NewReader(release), nil); err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}

	if err := os.WriteFile(inRelease, clear.Bytes(), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(releaseGPG, detached.Bytes(), 0644); err != nil {
		return err
	}
	log.V(1).Info("signed release")
	return nil
}

// exportPublicKey writes the armored public half of the signing key to
// gpg.key at the repository root, where clients fetch it for apt trust.
func (a *Assembler) exportPublicKey(ctx context.Context) error {
	dst := filepath.Join(a.spec.Root, "gpg.key")
	if a.signer == nil {
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	log := logr.FromContextOrDiscard(ctx)

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return err
	}
	if err := a.signer.Serialize(w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	log.V(1).Info("exporting public key", "dst", dst)
	return os.WriteFile(dst, buf.Bytes(), 0644)
}
