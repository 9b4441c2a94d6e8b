package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	var cases = []struct {
		name string
		want string
	}{
		{"index.html", "text/html"},
		{"pool/main/n/nginx-custom/nginx-custom_1.27.0-1_amd64.deb", "application/vnd.debian.binary-package"},
		{"dists/noble/main/binary-amd64/Packages", "text/plain"},
		{"dists/noble/main/binary-amd64/Packages.gz", "application/gzip"},
		{"dists/noble/main/binary-amd64/Packages.xz", "application/x-xz"},
		{"dists/noble/Release", "text/plain"},
		{"dists/noble/InRelease", "text/plain"},
		{"dists/noble/Release.gpg", "application/pgp-keys"},
		{"gpg.key", "application/pgp-keys"},
		{"unknown.bin", "application/octet-stream"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.name))
		})
	}
}
