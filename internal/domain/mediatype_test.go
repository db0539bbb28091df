package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaTypeFromString_KnownTypes(t *testing.T) {
	for mt := range knownMediaTypes {
		assert.Equal(t, mt, MediaTypeFromString(mt.String()), "known media type should classify to itself")
	}
}

func TestMediaTypeFromString_UnknownIsCustom(t *testing.T) {
	tests := []string{
		"",
		"application/vnd.example.future.v9+json",
		"text/plain",
		"application/vnd.oci.image.manifest.v1+json; charset=utf-8",
	}

	for _, s := range tests {
		assert.Equal(t, MediaTypeCustom, MediaTypeFromString(s), "unknown media type %q must degrade to custom, never error", s)
	}
}

func TestMediaType_Predicates(t *testing.T) {
	tests := []struct {
		mt           MediaType
		imageManifest bool
		manifestList bool
		imageLayer   bool
		imageConfig  bool
		blobLike     bool
	}{
		{MediaTypeOCIImageManifest, true, false, false, false, false},
		{MediaTypeDockerManifestV1, true, false, false, false, false},
		{MediaTypeDockerManifestV1Signed, true, false, false, false, false},
		{MediaTypeDockerManifestV2, true, false, false, false, false},
		{MediaTypeOCIImageIndex, false, true, false, false, false},
		{MediaTypeDockerManifestList, false, true, false, false, false},
		{MediaTypeOCILayerTar, false, false, true, false, true},
		{MediaTypeOCILayerTarGzip, false, false, true, false, true},
		{MediaTypeOCILayerTarZstd, false, false, true, false, true},
		{MediaTypeOCIImageConfig, false, false, false, true, true},
		{MediaTypeContainerConfig, false, false, false, true, true},
		{MediaTypeOctetStream, false, false, false, false, true},
		{MediaTypeCustom, false, false, false, false, true},
		{MediaTypeEmptyJSON, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mt.String(), func(t *testing.T) {
			assert.Equal(t, tt.imageManifest, tt.mt.IsImageManifest())
			assert.Equal(t, tt.manifestList, tt.mt.IsManifestList())
			assert.Equal(t, tt.imageLayer, tt.mt.IsImageLayer())
			assert.Equal(t, tt.imageConfig, tt.mt.IsImageConfig())
			assert.Equal(t, tt.blobLike, tt.mt.IsBlobLike())
		})
	}
}

func TestMediaType_IsImageRootfs(t *testing.T) {
	assert.True(t, MediaTypeDockerLayerTarGzip.IsImageRootfs())
	assert.False(t, MediaTypeOCILayerTarGzip.IsImageRootfs())
}

func TestManifestAcceptHeader(t *testing.T) {
	header := ManifestAcceptHeader()
	parts := strings.Split(header, ",")

	want := []string{
		MediaTypeDockerManifestV1.String(),
		MediaTypeDockerManifestV1Signed.String(),
		MediaTypeDockerManifestV2.String(),
		MediaTypeDockerManifestList.String(),
		MediaTypeOCIImageManifest.String(),
		MediaTypeOCIImageIndex.String(),
	}
	assert.Equal(t, want, parts, "accept header must contain each manifest variant exactly once, in stable order")

	// order stable across calls
	assert.Equal(t, header, ManifestAcceptHeader())
}
