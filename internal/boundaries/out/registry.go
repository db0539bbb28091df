package out

import (
	"context"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cainy/dockhand/internal/domain"
)

// Registry defines the contract for authenticated, read-only access to a
// distribution registry. "Not found" responses are a valid empty result
// (nil / -1), never an error.
type Registry interface {
	// GetManifest fetches and parses a manifest by tag or digest.
	// Returns (nil, nil) when the registry answers 404.
	GetManifest(ctx context.Context, repository, reference string) (*domain.ManifestResource, error)

	// GetBlob fetches a blob's content. Returns (nil, nil) on 404.
	GetBlob(ctx context.Context, repository, reference string) ([]byte, error)

	// GetBlobSize fetches a blob's size via a HEAD request.
	// Returns (-1, nil) on 404.
	GetBlobSize(ctx context.Context, repository, reference string) (int64, error)

	// GetImageConfig fetches and parses the image config blob referenced
	// by a descriptor. Returns (nil, nil) on 404.
	GetImageConfig(ctx context.Context, desc domain.Descriptor) (*ocispec.Image, error)

	// ListRepositories lists the registry catalog.
	ListRepositories(ctx context.Context) ([]string, error)

	// ListTags lists the tags of one repository.
	ListTags(ctx context.Context, repository string) ([]string, error)

	// IsOnline reports liveness; it never returns an error. Connection
	// failure and any non-2xx response both count as not online.
	IsOnline(ctx context.Context) bool

	// APIVersion reads the distribution API version header; absent or
	// unrecognized values default to V2.
	APIVersion(ctx context.Context) (domain.RegistryAPIVersion, error)
}
