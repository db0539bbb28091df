// Package registry implements the outbound adapter for the distribution
// registry HTTP API (v2).
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cainy/dockhand/internal/boundaries/out"
	"github.com/cainy/dockhand/internal/domain"
	"github.com/cainy/dockhand/internal/usecase/token"
	"github.com/cainy/dockhand/pkg/validation"
)

// DefaultTimeout bounds every registry round trip.
const DefaultTimeout = 30 * time.Second

// apiVersionHeader is set by distribution registries on every response.
const apiVersionHeader = "Docker-Distribution-Api-Version"

// Client talks to a single registry endpoint. Every request carries a
// short-lived bearer token minted for exactly the scope the call needs.
type Client struct {
	baseURL string
	issuer  out.TokenIssuer
	client  *http.Client
	log     zerowrap.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.client = httpClient
	}
}

// New creates a registry client for the given base URL.
func New(baseURL string, issuer out.TokenIssuer, log zerowrap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		issuer:  issuer,
		log:     log,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}

	return c
}

var _ out.Registry = (*Client)(nil)

// do issues one authenticated request. A fresh token is minted per call
// so a stolen token is worth at most two minutes of the given scopes.
func (c *Client) do(ctx context.Context, method, path string, scopes []domain.AccessScope) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	tok, err := c.issuer.Issue(scopes, token.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue registry token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	if method == http.MethodGet && strings.Contains(path, "/manifests/") {
		req.Header.Set("Accept", domain.ManifestAcceptHeader())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryUnreachable, err)
	}
	return resp, nil
}

// requestError drains the response body and builds the failure error for
// a non-2xx, non-404 response.
func requestError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &domain.RegistryRequestError{
		Status: resp.StatusCode,
		Body:   string(body),
	}
}

// GetManifest fetches a manifest by tag or digest and parses it into a
// ManifestResource. The manifest's content digest comes from the
// Docker-Content-Digest header, falling back to a digest-shaped ETag.
func (c *Client) GetManifest(ctx context.Context, repository, reference string) (*domain.ManifestResource, error) {
	if err := validation.ValidateRepositoryName(repository); err != nil {
		return nil, err
	}
	if err := validation.ValidateReference(reference); err != nil {
		return nil, err
	}

	log := c.log.With().
		Str(zerowrap.FieldAdapter, "registry").
		Str("repository", repository).
		Str("reference", reference).
		Logger()

	resp, err := c.do(ctx, http.MethodGet, "/v2/"+repository+"/manifests/"+reference,
		[]domain.AccessScope{domain.ReadRepositoryScope(repository)})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		log.Debug().Msg("Manifest not found")
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, requestError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest body: %w", err)
	}

	contentDigest := responseDigest(resp)
	if contentDigest == "" {
		return nil, fmt.Errorf("%w: response carries no content digest", domain.ErrMissingDigest)
	}

	manifest, err := domain.ParseManifest(repository, contentDigest, body)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("digest", contentDigest.String()).
		Str("media_type", manifest.MediaType.String()).
		Msg("Fetched manifest")
	return manifest, nil
}

// responseDigest extracts the content digest from the response headers.
// Registries send Docker-Content-Digest; some front proxies strip it
// but leave the digest in the ETag, possibly weakened and quoted. A
// malformed digest counts as absent.
func responseDigest(resp *http.Response) digest.Digest {
	raw := resp.Header.Get("Docker-Content-Digest")
	if raw == "" {
		raw = strings.TrimPrefix(resp.Header.Get("ETag"), "W/")
		raw = strings.Trim(raw, `"`)
	}
	d := digest.Digest(raw)
	if d.Validate() != nil {
		return ""
	}
	return d
}

// GetBlob fetches a blob's full content. The response must carry a
// content digest header, same as manifests; a blob the registry will
// not vouch for is not returned.
func (c *Client) GetBlob(ctx context.Context, repository, reference string) ([]byte, error) {
	if err := validation.ValidateRepositoryName(repository); err != nil {
		return nil, err
	}
	if err := validation.ValidateDigest(reference); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodGet, "/v2/"+repository+"/blobs/"+reference,
		[]domain.AccessScope{domain.ReadRepositoryScope(repository)})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, requestError(resp)
	}

	if responseDigest(resp) == "" {
		return nil, fmt.Errorf("%w: blob response carries no content digest", domain.ErrMissingDigest)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob body: %w", err)
	}
	return body, nil
}

// GetBlobSize reads a blob's size from a HEAD request without
// transferring the content. A missing blob is reported as -1; the same
// digest header policy as GetBlob applies, and a 2xx answer without a
// Content-Length is an error rather than a -1 that would shadow the
// not-found sentinel.
func (c *Client) GetBlobSize(ctx context.Context, repository, reference string) (int64, error) {
	if err := validation.ValidateRepositoryName(repository); err != nil {
		return -1, err
	}
	if err := validation.ValidateDigest(reference); err != nil {
		return -1, err
	}

	resp, err := c.do(ctx, http.MethodHead, "/v2/"+repository+"/blobs/"+reference,
		[]domain.AccessScope{domain.ReadRepositoryScope(repository)})
	if err != nil {
		return -1, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return -1, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return -1, requestError(resp)
	}

	if responseDigest(resp) == "" {
		return -1, fmt.Errorf("%w: blob response carries no content digest", domain.ErrMissingDigest)
	}
	if resp.ContentLength < 0 {
		return -1, fmt.Errorf("blob response for %s carries no Content-Length", reference)
	}

	return resp.ContentLength, nil
}

// GetImageConfig fetches the image configuration blob a manifest's
// config descriptor points at.
func (c *Client) GetImageConfig(ctx context.Context, desc domain.Descriptor) (*ocispec.Image, error) {
	if !desc.MediaType.IsImageConfig() {
		return nil, fmt.Errorf("descriptor %s is not an image config (%s)", desc.Digest, desc.MediaType)
	}

	body, err := c.GetBlob(ctx, desc.Repository, desc.Digest.String())
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var image ocispec.Image
	if err := json.Unmarshal(body, &image); err != nil {
		return nil, fmt.Errorf("failed to decode image config %s: %w", desc.Digest, err)
	}
	return &image, nil
}

type catalogResponse struct {
	Repositories []string `json:"repositories"`
}

// ListRepositories lists the registry catalog.
func (c *Client) ListRepositories(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v2/_catalog",
		[]domain.AccessScope{domain.CatalogScope()})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, requestError(resp)
	}

	var catalog catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return catalog.Repositories, nil
}

type tagListResponse struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// ListTags lists the tags of one repository. A repository without tags
// yields an empty slice.
func (c *Client) ListTags(ctx context.Context, repository string) ([]string, error) {
	if err := validation.ValidateRepositoryName(repository); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodGet, "/v2/"+repository+"/tags/list",
		[]domain.AccessScope{domain.ReadRepositoryScope(repository)})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, requestError(resp)
	}

	var list tagListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode tag list: %w", err)
	}
	return list.Tags, nil
}

// IsOnline reports whether the registry answers its version check
// endpoint with a success status. Any error or non-2xx answer counts as
// offline.
func (c *Client) IsOnline(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, "/v2/", nil)
	if err != nil {
		c.log.Debug().Err(err).Msg("Registry unreachable")
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// APIVersion reads the distribution API version the registry announces.
// Absent or unrecognized values default to V2.
func (c *Client) APIVersion(ctx context.Context) (domain.RegistryAPIVersion, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v2/", nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.Header.Get(apiVersionHeader) == string(domain.RegistryAPIV1) {
		return domain.RegistryAPIV1, nil
	}
	return domain.RegistryAPIV2, nil
}
