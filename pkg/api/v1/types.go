package v1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// Suite is fixed for every distribution we publish.
const Suite = "stable"

type RepositorySpec struct {
	// Origin and Label identify the repository to APT clients.
	Origin      string `json:"origin"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`

	// Root is the local directory holding the pool/ and dists/ trees.
	Root string `json:"root"`

	Codenames     []string `json:"codenames,omitempty"`
	Components    []string `json:"components,omitempty"`
	Architectures []string `json:"architectures,omitempty"`

	// SigningKey is the path to an ASCII-armored private key. When empty
	// the repository is published unsigned.
	SigningKey string `json:"signingKey,omitempty"`

	Publish *PublishSpec `json:"publish,omitempty"`
}

type PublishSpec struct {
	Bucket string `json:"bucket"`
	// Endpoint overrides the SDK default, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`
	Region   string `json:"region,omitempty"`
	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`
}

type Repository struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec RepositorySpec `json:"spec"`
}

// Defaulted returns a copy of the spec with the reference layout filled in
// for any list left empty.
func (s RepositorySpec) Defaulted() RepositorySpec {
	if len(s.Codenames) == 0 {
		s.Codenames = []string{"noble", "jammy", "trixie", "bookworm"}
	}
	if len(s.Components) == 0 {
		s.Components = []string{"main"}
	}
	if len(s.Architectures) == 0 {
		s.Architectures = []string{"amd64", "arm64"}
	}
	return s
}
