package domain

import "strings"

// MediaType identifies the content type of an object stored in or
// announced by a registry. The set of known values is closed; anything
// outside it classifies as MediaTypeCustom.
type MediaType string

const (
	// Image manifest media types.
	MediaTypeOCIImageManifest       MediaType = "application/vnd.oci.image.manifest.v1+json"
	MediaTypeDockerManifestV1       MediaType = "application/vnd.docker.distribution.manifest.v1+json"
	MediaTypeDockerManifestV1Signed MediaType = "application/vnd.docker.distribution.manifest.v1+prettyjws"
	MediaTypeDockerManifestV2       MediaType = "application/vnd.docker.distribution.manifest.v2+json"

	// Manifest list / index media types.
	MediaTypeOCIImageIndex      MediaType = "application/vnd.oci.image.index.v1+json"
	MediaTypeDockerManifestList MediaType = "application/vnd.docker.distribution.manifest.list.v2+json"

	// Image config media types.
	MediaTypeOCIImageConfig  MediaType = "application/vnd.oci.image.config.v1+json"
	MediaTypeContainerConfig MediaType = "application/vnd.docker.container.image.v1+json"

	// Image layer media types.
	MediaTypeOCILayerTar        MediaType = "application/vnd.oci.image.layer.v1.tar"
	MediaTypeOCILayerTarGzip    MediaType = "application/vnd.oci.image.layer.v1.tar+gzip"
	MediaTypeOCILayerTarZstd    MediaType = "application/vnd.oci.image.layer.v1.tar+zstd"
	MediaTypeDockerLayerTarGzip MediaType = "application/vnd.docker.image.rootfs.diff.tar.gzip"
	MediaTypeDockerForeignLayer MediaType = "application/vnd.docker.image.rootfs.foreign.tar.gzip"

	// Other media types.
	MediaTypeEmptyJSON   MediaType = "application/vnd.oci.empty.v1+json"
	MediaTypeOctetStream MediaType = "application/octet-stream"

	// MediaTypeCustom is the catch-all for anything outside the known set.
	MediaTypeCustom MediaType = "custom"
)

// knownMediaTypes is the closed catalogue used by MediaTypeFromString.
var knownMediaTypes = map[MediaType]struct{}{
	MediaTypeOCIImageManifest:       {},
	MediaTypeDockerManifestV1:       {},
	MediaTypeDockerManifestV1Signed: {},
	MediaTypeDockerManifestV2:       {},
	MediaTypeOCIImageIndex:          {},
	MediaTypeDockerManifestList:     {},
	MediaTypeOCIImageConfig:         {},
	MediaTypeContainerConfig:        {},
	MediaTypeOCILayerTar:            {},
	MediaTypeOCILayerTarGzip:        {},
	MediaTypeOCILayerTarZstd:        {},
	MediaTypeDockerLayerTarGzip:     {},
	MediaTypeDockerForeignLayer:     {},
	MediaTypeEmptyJSON:              {},
	MediaTypeOctetStream:            {},
}

// MediaTypeFromString classifies a raw content-type string. Unknown input
// maps to MediaTypeCustom, never to an error: a registry emitting a
// vendor-specific or future media type must degrade to "opaque blob"
// instead of breaking the pipeline. Callers that care can log the
// original string when IsCustom() is true.
func MediaTypeFromString(s string) MediaType {
	mt := MediaType(s)
	if _, ok := knownMediaTypes[mt]; ok {
		return mt
	}
	return MediaTypeCustom
}

// String returns the media type as its wire string.
func (m MediaType) String() string {
	return string(m)
}

// IsImageManifest reports whether the media type is a single-platform
// image manifest.
func (m MediaType) IsImageManifest() bool {
	return m == MediaTypeDockerManifestV1 ||
		m == MediaTypeDockerManifestV1Signed ||
		m == MediaTypeDockerManifestV2 ||
		m == MediaTypeOCIImageManifest
}

// IsManifestList reports whether the media type is a multi-platform
// manifest list or index.
func (m MediaType) IsManifestList() bool {
	return m == MediaTypeOCIImageIndex || m == MediaTypeDockerManifestList
}

// IsImageLayer reports whether the media type is an image layer.
func (m MediaType) IsImageLayer() bool {
	return m == MediaTypeOCILayerTar ||
		m == MediaTypeOCILayerTarGzip ||
		m == MediaTypeOCILayerTarZstd
}

// IsImageConfig reports whether the media type is an image config.
func (m MediaType) IsImageConfig() bool {
	return m == MediaTypeOCIImageConfig || m == MediaTypeContainerConfig
}

// IsImageRootfs reports whether the media type is a Docker root
// filesystem diff layer.
func (m MediaType) IsImageRootfs() bool {
	return m == MediaTypeDockerLayerTarGzip
}

// IsCustom reports whether the media type fell outside the known set.
func (m MediaType) IsCustom() bool {
	return m == MediaTypeCustom
}

// IsBlobLike reports whether the media type refers to a content-addressed
// object that is not a manifest.
func (m MediaType) IsBlobLike() bool {
	return m.IsImageLayer() ||
		m.IsImageConfig() ||
		m == MediaTypeOctetStream ||
		m == MediaTypeCustom
}

// manifestAcceptTypes is the fixed negotiation list for manifest fetches.
// Order is stable and significant only for reproducibility.
var manifestAcceptTypes = []MediaType{
	MediaTypeDockerManifestV1,
	MediaTypeDockerManifestV1Signed,
	MediaTypeDockerManifestV2,
	MediaTypeDockerManifestList,
	MediaTypeOCIImageManifest,
	MediaTypeOCIImageIndex,
}

// ManifestAcceptHeader returns the comma-joined list of all known
// manifest media types, for use as the Accept header on manifest fetches.
func ManifestAcceptHeader() string {
	parts := make([]string, len(manifestAcceptTypes))
	for i, mt := range manifestAcceptTypes {
		parts[i] = mt.String()
	}
	return strings.Join(parts, ",")
}
