package publish

import (
	"path/filepath"
	"strings"
)

// ContentType picks the MIME type an object is served with, by file suffix.
// APT clients don't care, but browsers hitting the repository listing do.
func ContentType(name string) string {
	base := filepath.Base(name)
	switch {
	case base == "Packages" || base == "Release" || base == "InRelease":
		return "text/plain"
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".html":
		return "text/html"
	case ".deb":
		return "application/vnd.debian.binary-package"
	case ".gz":
		return "application/gzip"
	case ".xz":
		return "application/x-xz"
	case ".gpg", ".key":
		return "application/pgp-keys"
	default:
		return "application/octet-stream"
	}
}
