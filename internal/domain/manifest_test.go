package domain

import (
	"encoding/json"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifestDigest = digest.Digest("sha256:b5b2b2c507a0944348e0303114d8d93aaaa081732b86451d9bce1f432a537bc7")

func imageManifestBody() []byte {
	return []byte(`{
		"schemaVersion": 2,
		"mediaType": "application/vnd.oci.image.manifest.v1+json",
		"config": {
			"mediaType": "application/vnd.oci.image.config.v1+json",
			"size": 7023,
			"digest": "sha256:b5b2b2c507a0944348e0303114d8d93aaaa081732b86451d9bce1f432a537bc7"
		},
		"layers": [
			{
				"mediaType": "application/vnd.oci.image.layer.v1.tar+gzip",
				"size": 32654,
				"digest": "sha256:9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0"
			},
			{
				"mediaType": "application/vnd.oci.image.layer.v1.tar+gzip",
				"size": 16724,
				"digest": "sha256:3c3a4604a545cdc127456d94e421cd355bca5b528f4a9c1905b15da2eb4a4c6b",
				"urls": ["https://mirror.example.com/layer"]
			}
		]
	}`)
}

func manifestListBody() []byte {
	return []byte(`{
		"schemaVersion": 2,
		"mediaType": "application/vnd.oci.image.index.v1+json",
		"manifests": [
			{
				"mediaType": "application/vnd.oci.image.manifest.v1+json",
				"size": 7143,
				"digest": "sha256:e692418e4cbaf90ca69d05a66403747baa33ee08806650b51fab815ad7fc331f",
				"platform": {"architecture": "amd64", "os": "linux"}
			},
			{
				"mediaType": "application/vnd.oci.image.manifest.v1+json",
				"size": 7682,
				"digest": "sha256:5b0bcabd1ed22e9fb1310cf6c2dec7cdef19f0ad69efa1f392e94a4333501270",
				"platform": {"architecture": "arm", "os": "linux", "variant": "v7"}
			}
		]
	}`)
}

func TestParseManifest_ImageManifest(t *testing.T) {
	res, err := ParseManifest("john/busybox", testManifestDigest, imageManifestBody())
	require.NoError(t, err)

	assert.Equal(t, "john/busybox", res.Repository)
	assert.Equal(t, testManifestDigest, res.Digest)
	assert.Equal(t, MediaTypeOCIImageManifest, res.MediaType)
	assert.Equal(t, 2, res.SchemaVersion)
	assert.False(t, res.IsManifestList())

	require.NotNil(t, res.Config)
	assert.Equal(t, MediaTypeOCIImageConfig, res.Config.MediaType)
	assert.Equal(t, int64(7023), res.GetSize())
	assert.Equal(t, "john/busybox", res.Config.Repository)

	require.Len(t, res.Layers, 2)
	assert.Equal(t, int64(32654), res.Layers[0].Size, "layer order preserved, base image first")
	assert.Equal(t, []string{"https://mirror.example.com/layer"}, res.Layers[1].URLs)
}

func TestParseManifest_ManifestList(t *testing.T) {
	res, err := ParseManifest("john/busybox", testManifestDigest, manifestListBody())
	require.NoError(t, err)

	assert.True(t, res.IsManifestList())
	assert.Nil(t, res.Config)
	assert.Equal(t, int64(0), res.GetSize())
	require.Len(t, res.Manifests, 2)

	entry := res.FindEntryByPlatform(Platform{OS: "linux", Architecture: "arm", Variant: "v7"})
	require.NotNil(t, entry)
	assert.Equal(t, digest.Digest("sha256:5b0bcabd1ed22e9fb1310cf6c2dec7cdef19f0ad69efa1f392e94a4333501270"), entry.Digest)

	// variant mismatch is no match
	assert.Nil(t, res.FindEntryByPlatform(Platform{OS: "linux", Architecture: "arm"}))
	assert.Nil(t, res.FindEntryByPlatform(Platform{OS: "linux", Architecture: "s390x"}))
}

func TestParseManifest_MalformedEntriesSkippedOnLookup(t *testing.T) {
	body := []byte(`{
		"schemaVersion": 2,
		"mediaType": "application/vnd.oci.image.index.v1+json",
		"manifests": [
			{
				"mediaType": "application/vnd.oci.image.manifest.v1+json",
				"size": 1,
				"digest": "sha256:e692418e4cbaf90ca69d05a66403747baa33ee08806650b51fab815ad7fc331f",
				"platform": "not-an-object"
			},
			{
				"mediaType": "application/vnd.oci.image.manifest.v1+json",
				"size": 2,
				"digest": "sha256:5b0bcabd1ed22e9fb1310cf6c2dec7cdef19f0ad69efa1f392e94a4333501270",
				"platform": {"architecture": "amd64", "os": "linux"}
			}
		]
	}`)

	res, err := ParseManifest("a/b", testManifestDigest, body)
	require.NoError(t, err)

	entry := res.FindEntryByPlatform(Platform{OS: "linux", Architecture: "amd64"})
	require.NotNil(t, entry)
	assert.Equal(t, int64(2), entry.Size)
}

func TestParseManifest_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{invalid`},
		{"missing mediaType", `{"schemaVersion":2,"config":{},"layers":[]}`},
		{
			"media type neither manifest nor list",
			`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.layer.v1.tar"}`,
		},
		{
			"image manifest missing config",
			`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.manifest.v1+json","layers":[{"mediaType":"application/vnd.oci.image.layer.v1.tar","size":1,"digest":"sha256:9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0"}]}`,
		},
		{
			"image manifest missing layers",
			`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.manifest.v1+json","config":{"mediaType":"application/vnd.oci.image.config.v1+json","size":1,"digest":"sha256:9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0"}}`,
		},
		{
			"manifest list missing manifests",
			`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.index.v1+json"}`,
		},
		{
			"config with invalid digest",
			`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.manifest.v1+json","config":{"mediaType":"application/vnd.oci.image.config.v1+json","size":1,"digest":"not-a-digest"},"layers":[{"mediaType":"application/vnd.oci.image.layer.v1.tar","size":1,"digest":"sha256:9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest("a/b", testManifestDigest, []byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformedManifest)
		})
	}
}

func TestParseManifest_MissingDigest(t *testing.T) {
	_, err := ParseManifest("a/b", "", imageManifestBody())
	assert.ErrorIs(t, err, ErrMissingDigest, "an unverifiable manifest must never be constructed")
}

func TestDescriptor_RoundTrip(t *testing.T) {
	desc := Descriptor{
		Repository: "a/b",
		MediaType:  MediaTypeOCILayerTarGzip,
		Size:       1234,
		Digest:     digest.Digest("sha256:9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0"),
		URLs:       []string{"https://mirror.example.com/blob"},
	}

	data, err := json.Marshal(desc)
	require.NoError(t, err)

	var back Descriptor
	require.NoError(t, json.Unmarshal(data, &back))
	back.Repository = desc.Repository // repository is context, not wire data

	assert.Equal(t, desc, back, "serialization is a pure projection, not lossy")
}
