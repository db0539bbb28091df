package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnema/zerowrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cainy/dockhand/internal/domain"
)

// stubNotifyService records batches and returns a configured error.
type stubNotifyService struct {
	err     error
	batches [][]json.RawMessage
}

func (s *stubNotifyService) ProcessBatch(_ context.Context, events []json.RawMessage) error {
	s.batches = append(s.batches, events)
	if s.err != nil {
		return s.err
	}
	if len(events) == 0 {
		return domain.ErrMalformedBatch
	}
	return nil
}

// stubVerifier accepts exactly one token string.
type stubVerifier struct {
	accept string
}

func (v *stubVerifier) Verify(tokenString, requiredAction string) bool {
	return tokenString == v.accept && requiredAction == domain.ScopeActionNotify
}

func newHandler(svcErr error) (*Handler, *stubNotifyService) {
	svc := &stubNotifyService{err: svcErr}
	return NewHandler(svc, &stubVerifier{accept: "valid-token"}, zerowrap.Default()), svc
}

func postNotify(h *Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, DefaultRoute, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func eventsBody(t *testing.T, n int) string {
	t.Helper()
	events := make([]map[string]any, n)
	for i := range events {
		events[i] = map[string]any{
			"id":        "event-id",
			"timestamp": "2024-01-01T00:00:00Z",
			"action":    "push",
			"target": map[string]any{
				"mediaType":  "application/vnd.oci.image.manifest.v1+json",
				"digest":     "sha256:b5b2b2c507a0944348e0303114d8d93aaaa081732b86451d9bce1f432a537bc7",
				"repository": "library/alpine",
			},
		}
	}
	body, err := json.Marshal(map[string]any{"events": events})
	require.NoError(t, err)
	return string(body)
}

func TestHandleNotify_Accepted(t *testing.T) {
	h, svc := newHandler(nil)

	rec := postNotify(h, "valid-token", eventsBody(t, 2))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())
	require.Len(t, svc.batches, 1)
	assert.Len(t, svc.batches[0], 2)
}

func TestHandleNotify_MethodNotAllowed(t *testing.T) {
	h, svc := newHandler(nil)

	req := httptest.NewRequest(http.MethodGet, DefaultRoute, nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, svc.batches)
}

func TestHandleNotify_Unauthorized(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"wrong token", "forged-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newHandler(nil)

			rec := postNotify(h, tt.token, eventsBody(t, 1))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			assert.Empty(t, svc.batches, "batch must not reach the service")
		})
	}
}

func TestHandleNotify_BadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"events absent", `{}`},
		{"events empty", `{"events":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandler(nil)

			rec := postNotify(h, "valid-token", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleNotify_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported action", domain.ErrUnsupportedAction, http.StatusUnprocessableEntity},
		{"invalid action", domain.ErrInvalidEventAction, http.StatusUnprocessableEntity},
		{"dispatch failure", domain.ErrEventProcessingFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandler(tt.err)

			rec := postNotify(h, "valid-token", eventsBody(t, 1))

			assert.Equal(t, tt.want, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}
