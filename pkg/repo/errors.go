package repo

import "errors"

var (
	// ErrMissingArtifact is returned when a file that must be listed in the
	// Release checksum sections does not exist on disk. Publishing a Release
	// that references absent files would break every APT client, so this is
	// fatal for the run.
	ErrMissingArtifact = errors.New("tracked artifact missing")

	// ErrSigning is returned when a signing key is configured but producing
	// the signatures failed. An unsigned repository is a valid state; a
	// half-signed one is not.
	ErrSigning = errors.New("release signing failed")

	// ErrLocked is returned when another assembler holds the repository lock.
	ErrLocked = errors.New("repository is locked by another process")
)
