package domain

import (
	"fmt"

	// crypto libraries registered for go-digest validation
	_ "crypto/sha256"
	_ "crypto/sha512"

	"github.com/opencontainers/go-digest"
)

// Descriptor is a reference to a fetchable content-addressed object: the
// config, a layer, or a manifest list entry. Repository is caller-supplied
// context scoping the digest's namespace, never wire data; the same digest
// string in two repositories is not assumed to be the same retrievable
// object without a successful fetch.
type Descriptor struct {
	Repository string        `json:"-"`
	MediaType  MediaType     `json:"mediaType"`
	Size       int64         `json:"size"`
	Digest     digest.Digest `json:"digest"`
	URLs       []string      `json:"urls,omitempty"`
}

// descriptorWire is the raw JSON shape of a descriptor, before
// classification and digest validation.
type descriptorWire struct {
	MediaType string        `json:"mediaType"`
	Size      *int64        `json:"size"`
	Digest    digest.Digest `json:"digest"`
	URLs      []string      `json:"urls,omitempty"`
}

// parseDescriptor validates a wire descriptor and attaches the repository
// scope. mediaType, size and digest are all required; the digest string
// must parse as a valid algorithm:hex pair.
func parseDescriptor(repository string, w descriptorWire) (Descriptor, error) {
	if w.MediaType == "" {
		return Descriptor{}, fmt.Errorf("descriptor is missing mediaType")
	}
	if w.Size == nil {
		return Descriptor{}, fmt.Errorf("descriptor is missing size")
	}
	if w.Digest == "" {
		return Descriptor{}, fmt.Errorf("descriptor is missing digest")
	}
	if err := w.Digest.Validate(); err != nil {
		return Descriptor{}, fmt.Errorf("descriptor digest %q: %w", w.Digest, err)
	}

	return Descriptor{
		Repository: repository,
		MediaType:  MediaTypeFromString(w.MediaType),
		Size:       *w.Size,
		Digest:     w.Digest,
		URLs:       w.URLs,
	}, nil
}
