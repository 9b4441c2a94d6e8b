package downloader

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-getter"
)

// Downloader stages remote package directories locally so the assembler can
// treat every input as a plain directory of .deb files.
type Downloader struct {
	stagingDir string
}

func NewDownloader(stagingDir string) (*Downloader, error) {
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, err
	}
	return &Downloader{stagingDir: stagingDir}, nil
}

// Fetch resolves src into a local directory of packages. A plain directory
// path is returned as-is; anything with a URL scheme is fetched with
// go-getter into a fresh staging directory.
func (d *Downloader) Fetch(ctx context.Context, src string) (string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src)

	if info, err := os.Stat(src); err == nil && info.IsDir() {
		return src, nil
	}

	uri, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	if uri.Scheme == "" {
		return "", fmt.Errorf("input is neither a directory nor a fetchable url: %s", src)
	}

	dst := filepath.Join(d.stagingDir, uuid.NewString())
	log.Info("fetching packages", "dst", dst)

	client := &getter.Client{
		Ctx:             ctx,
		Src:             src,
		Dst:             dst,
		Mode:            getter.ClientModeDir,
		DisableSymlinks: true,
	}
	if err := client.Get(); err != nil {
		log.Error(err, "failed to fetch packages")
		return "", err
	}
	return dst, nil
}
