package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	v1 "github.com/djcass44/aptforge/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/gosimple/hashdir"
)

// stateFile records the tree digest of the last successful publish so an
// unchanged repository can skip the mirror entirely.
const stateFile = ".aptforge.state"

// ObjectStore is the slice of the S3 API the publisher needs.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Publisher mirrors a local repository tree into an object-store bucket:
// every local file is uploaded, then remote objects with no local
// counterpart are deleted.
type Publisher struct {
	store ObjectStore
	spec  v1.PublishSpec
}

func NewPublisher(store ObjectStore, spec v1.PublishSpec) *Publisher {
	return &Publisher{store: store, spec: spec}
}

// NewClient builds an S3 client from the default credential chain, honouring
// the endpoint override for S3-compatible stores.
func NewClient(ctx context.Context, spec v1.PublishSpec) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if spec.Region != "" {
		opts = append(opts, awsconfig.WithRegion(spec.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if spec.Endpoint != "" {
			o.BaseEndpoint = aws.String(spec.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Mirror uploads the tree rooted at root and deletes remote strays. When
// force is false and the tree digest matches the recorded state, nothing is
// transferred.
func (p *Publisher) Mirror(ctx context.Context, root string, force bool) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("bucket", p.spec.Bucket, "root", root)

	digest, err := treeDigest(root)
	if err != nil {
		return err
	}
	statePath := filepath.Join(root, stateFile)
	if !force {
		if prev, err := os.ReadFile(filepath.Clean(statePath)); err == nil && strings.TrimSpace(string(prev)) == digest {
			log.Info("repository unchanged since last publish, skipping")
			return nil
		}
	}

	local, err := localFiles(root)
	if err != nil {
		return err
	}

	for _, rel := range local {
		if err := p.upload(ctx, root, rel); err != nil {
			return fmt.Errorf("uploading %s: %w", rel, err)
		}
	}
	log.Info("uploaded repository", "files", len(local))

	if err := p.deleteStrays(ctx, local); err != nil {
		return err
	}

	return os.WriteFile(statePath, []byte(digest+"\n"), 0644)
}

func (p *Publisher) upload(ctx context.Context, root, rel string) error {
	log := logr.FromContextOrDiscard(ctx)

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	defer f.Close()

	key := p.key(rel)
	ct := ContentType(rel)
	log.V(2).Info("uploading object", "key", key, "contentType", ct)
	_, err = p.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.spec.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ct),
	})
	return err
}

// deleteStrays removes remote objects that no longer exist locally, giving
// the bucket mirror semantics.
func (p *Publisher) deleteStrays(ctx context.Context, local []string) error {
	log := logr.FromContextOrDiscard(ctx)

	keep := make(map[string]bool, len(local))
	for _, rel := range local {
		keep[p.key(rel)] = true
	}

	var token *string
	for {
		page, err := p.store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(p.spec.Bucket),
			Prefix:            aws.String(p.spec.Prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if keep[key] {
				continue
			}
			log.V(1).Info("deleting stray object", "key", key)
			if _, err := p.store.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(p.spec.Bucket),
				Key:    aws.String(key),
			}); err != nil {
				return fmt.Errorf("deleting %s: %w", key, err)
			}
		}
		if !aws.ToBool(page.IsTruncated) {
			break
		}
		token = page.NextContinuationToken
	}
	return nil
}

func (p *Publisher) key(rel string) string {
	if p.spec.Prefix == "" {
		return rel
	}
	return path.Join(p.spec.Prefix, rel)
}

// treeDigest hashes the content trees only, so writing the state file
// after a publish does not change the digest it records.
func treeDigest(root string) (string, error) {
	var parts []string
	for _, sub := range []string{"dists", "pool"} {
		dir := filepath.Join(root, sub)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			parts = append(parts, "")
			continue
		}
		d, err := hashdir.Make(dir, "sha256")
		if err != nil {
			return "", err
		}
		parts = append(parts, d)
	}
	return strings.Join(parts, ":"), nil
}

// localFiles lists every publishable file under root as a sorted slice of
// slash-separated relative paths. Assembler housekeeping files stay local.
func localFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(path.Base(rel), ".") {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
