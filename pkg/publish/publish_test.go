package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	v1 "github.com/djcass44/aptforge/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records uploads and deletions in memory.
type fakeStore struct {
	objects map[string]string // key -> content type
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}}
}

func (f *fakeStore) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.objects[aws.ToString(params.Key)] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(params.Key)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeStore) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key := range f.objects {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func testContext(t *testing.T) context.Context {
	return logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func TestMirror(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"dists/noble/Release":                       "release",
		"dists/noble/main/binary-amd64/Packages":    "",
		"dists/noble/main/binary-amd64/Packages.gz": "gz",
		"pool/main/p/pkga/pkga_1.0_amd64.deb":       "deb",
		"index.html":                                "<html></html>",
		"gpg.key":                                   "key",
		".aptforge.lock":                            "",
	})

	store := newFakeStore()
	// a leftover from a previous layout should be mirrored away
	store.objects["stale/old.deb"] = "application/vnd.debian.binary-package"

	p := NewPublisher(store, v1.PublishSpec{Bucket: "repo"})
	require.NoError(t, p.Mirror(ctx, root, false))

	assert.Equal(t, "text/plain", store.objects["dists/noble/Release"])
	assert.Equal(t, "text/plain", store.objects["dists/noble/main/binary-amd64/Packages"])
	assert.Equal(t, "application/gzip", store.objects["dists/noble/main/binary-amd64/Packages.gz"])
	assert.Equal(t, "application/vnd.debian.binary-package", store.objects["pool/main/p/pkga/pkga_1.0_amd64.deb"])
	assert.Equal(t, "text/html", store.objects["index.html"])
	assert.Equal(t, "application/pgp-keys", store.objects["gpg.key"])

	assert.NotContains(t, store.objects, ".aptforge.lock")
	assert.Contains(t, store.deleted, "stale/old.deb")
}

func TestMirror_Prefix(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"gpg.key": "key"})

	store := newFakeStore()
	p := NewPublisher(store, v1.PublishSpec{Bucket: "repo", Prefix: "apt"})
	require.NoError(t, p.Mirror(ctx, root, false))

	assert.Contains(t, store.objects, "apt/gpg.key")
}

func TestMirror_SkipsUnchanged(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"dists/noble/Release": "release"})

	store := newFakeStore()
	p := NewPublisher(store, v1.PublishSpec{Bucket: "repo"})
	require.NoError(t, p.Mirror(ctx, root, false))
	require.Len(t, store.objects, 1)

	// second run: nothing changed so nothing is uploaded
	store2 := newFakeStore()
	p2 := NewPublisher(store2, v1.PublishSpec{Bucket: "repo"})
	require.NoError(t, p2.Mirror(ctx, root, false))
	assert.Empty(t, store2.objects)

	// unless forced
	store3 := newFakeStore()
	p3 := NewPublisher(store3, v1.PublishSpec{Bucket: "repo"})
	require.NoError(t, p3.Mirror(ctx, root, true))
	assert.Len(t, store3.objects, 1)
}
