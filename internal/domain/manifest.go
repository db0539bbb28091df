package domain

import (
	"encoding/json"
	"fmt"

	"github.com/opencontainers/go-digest"
)

// ManifestResource is a parsed manifest document in one of two variants:
// a single-platform image manifest (Config + Layers set) or a
// multi-platform manifest list (Manifests set). The top-level Digest is
// never taken from the body; it must be independently obtained from the
// transport-layer content-identity header and is authoritative. Resources
// are created only by ParseManifest and are immutable afterwards; a new
// fetch always produces a new resource.
type ManifestResource struct {
	Repository    string
	Digest        digest.Digest
	MediaType     MediaType
	SchemaVersion int

	// Image manifest variant. Layers are ordered base image first.
	Config *Descriptor
	Layers []Descriptor

	// Manifest list variant.
	Manifests []ManifestListEntry
}

// ManifestListEntry is one per-platform manifest reference inside a
// manifest list.
type ManifestListEntry struct {
	Descriptor
	Platform *Platform
}

type manifestWire struct {
	SchemaVersion int                 `json:"schemaVersion"`
	MediaType     string              `json:"mediaType"`
	Config        *descriptorWire     `json:"config"`
	Layers        []descriptorWire    `json:"layers"`
	Manifests     []manifestEntryWire `json:"manifests"`
}

type manifestEntryWire struct {
	descriptorWire
	Platform json.RawMessage `json:"platform,omitempty"`
}

// parsePlatformEntry decodes an entry's platform sub-object. A malformed
// sub-object yields nil rather than an error so a single bad entry cannot
// poison the whole list; such entries are simply unmatchable.
func parsePlatformEntry(raw json.RawMessage) *Platform {
	if len(raw) == 0 {
		return nil
	}
	var p Platform
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return &p
}

// ParseManifest parses a fetched manifest body into a ManifestResource.
// contentDigest must come from the transport integrity header
// (Docker-Content-Digest or the stripped ETag); the body is never trusted
// for its own identity. Failures are reported as ErrMalformedManifest,
// except for an absent contentDigest which is ErrMissingDigest.
func ParseManifest(repository string, contentDigest digest.Digest, body []byte) (*ManifestResource, error) {
	if contentDigest == "" {
		return nil, ErrMissingDigest
	}
	if err := contentDigest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: content digest %q: %v", ErrMalformedManifest, contentDigest, err)
	}

	var wire manifestWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedManifest, err)
	}

	if wire.MediaType == "" {
		return nil, fmt.Errorf("%w: missing mediaType field", ErrMalformedManifest)
	}

	mediaType := MediaTypeFromString(wire.MediaType)
	schemaVersion := wire.SchemaVersion
	if schemaVersion == 0 {
		schemaVersion = 2
	}

	res := &ManifestResource{
		Repository:    repository,
		Digest:        contentDigest,
		MediaType:     mediaType,
		SchemaVersion: schemaVersion,
	}

	switch {
	case mediaType.IsImageManifest():
		if wire.Config == nil {
			return nil, fmt.Errorf("%w: image manifest is missing config", ErrMalformedManifest)
		}
		if len(wire.Layers) == 0 {
			return nil, fmt.Errorf("%w: image manifest is missing layers", ErrMalformedManifest)
		}

		cfg, err := parseDescriptor(repository, *wire.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: config: %v", ErrMalformedManifest, err)
		}
		res.Config = &cfg

		res.Layers = make([]Descriptor, 0, len(wire.Layers))
		for i, lw := range wire.Layers {
			layer, err := parseDescriptor(repository, lw)
			if err != nil {
				return nil, fmt.Errorf("%w: layer %d: %v", ErrMalformedManifest, i, err)
			}
			res.Layers = append(res.Layers, layer)
		}

	case mediaType.IsManifestList():
		if len(wire.Manifests) == 0 {
			return nil, fmt.Errorf("%w: manifest list is missing manifests", ErrMalformedManifest)
		}

		res.Manifests = make([]ManifestListEntry, 0, len(wire.Manifests))
		for i, ew := range wire.Manifests {
			desc, err := parseDescriptor(repository, ew.descriptorWire)
			if err != nil {
				return nil, fmt.Errorf("%w: manifest entry %d: %v", ErrMalformedManifest, i, err)
			}
			res.Manifests = append(res.Manifests, ManifestListEntry{
				Descriptor: desc,
				Platform:   parsePlatformEntry(ew.Platform),
			})
		}

	default:
		return nil, fmt.Errorf("%w: media type %q is neither an image manifest nor a manifest list", ErrMalformedManifest, wire.MediaType)
	}

	return res, nil
}

// IsManifestList reports whether the resource is the manifest list variant.
func (m *ManifestResource) IsManifestList() bool {
	return m.MediaType.IsManifestList()
}

// GetSize returns the config size for an image manifest. Manifest lists
// carry no size of their own and return 0.
func (m *ManifestResource) GetSize() int64 {
	if m.Config != nil {
		return m.Config.Size
	}
	return 0
}

// ConfigDigest returns the config digest for an image manifest, or ""
// for a manifest list.
func (m *ManifestResource) ConfigDigest() digest.Digest {
	if m.Config != nil {
		return m.Config.Digest
	}
	return ""
}

// FindEntryByPlatform returns the first manifest list entry whose
// platform equals the given one (os, architecture, variant). Entries with
// an absent or malformed platform sub-object are skipped, not fatal.
// Returns nil for image manifests and when no entry matches.
func (m *ManifestResource) FindEntryByPlatform(p Platform) *ManifestListEntry {
	if !m.IsManifestList() {
		return nil
	}

	for i := range m.Manifests {
		entry := &m.Manifests[i]
		if entry.Platform == nil || entry.Platform.OS == "" || entry.Platform.Architecture == "" {
			continue
		}
		if entry.Platform.Equal(p) {
			return entry
		}
	}
	return nil
}
