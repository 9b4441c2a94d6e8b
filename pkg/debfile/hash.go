package debfile

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Digest computes the MD5 and SHA256 sums of r in one read.
func Digest(r io.Reader) (size int64, md5sum, sha256sum string, err error) {
	h5 := md5.New()
	h256 := sha256.New()
	size, err = io.Copy(io.MultiWriter(h5, h256), r)
	if err != nil {
		return 0, "", "", err
	}
	return size, hex.EncodeToString(h5.Sum(nil)), hex.EncodeToString(h256.Sum(nil)), nil
}
