// Package notify implements the HTTP adapter for the registry webhook
// endpoint.
package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bnema/zerowrap"

	"github.com/cainy/dockhand/internal/adapters/dto"
	"github.com/cainy/dockhand/internal/boundaries/in"
	"github.com/cainy/dockhand/internal/domain"
)

// MaxBatchSize limits notification payloads to 4MB. Distribution sends
// small batches; anything larger is hostile or misconfigured.
const MaxBatchSize = 4 * 1024 * 1024

// DefaultRoute is the webhook path registries are pointed at.
const DefaultRoute = "/dockhand/notify"

// Handler receives registry notification batches, authenticates them
// with a scoped bearer token, and hands them to the notify service.
type Handler struct {
	notifySvc in.NotifyService
	verifier  in.TokenVerifier
	log       zerowrap.Logger
}

// NewHandler creates a new notification webhook handler.
func NewHandler(notifySvc in.NotifyService, verifier in.TokenVerifier, log zerowrap.Logger) *Handler {
	return &Handler{
		notifySvc: notifySvc,
		verifier:  verifier,
		log:       log,
	}
}

// RegisterRoutes registers the webhook route on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, route string) {
	if route == "" {
		route = DefaultRoute
	}
	mux.HandleFunc(route, h.handleNotify)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handleNotify(w, r)
}

func (h *Handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	ctx := zerowrap.CtxWithFields(r.Context(), map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "http",
		zerowrap.FieldHandler: "notify",
		zerowrap.FieldMethod:  r.Method,
		zerowrap.FieldPath:    r.URL.Path,
	})
	r = r.WithContext(ctx)
	log := zerowrap.FromCtx(ctx)

	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !h.authenticated(r) {
		log.Warn().
			Err(domain.ErrUnauthorized).
			Str(zerowrap.FieldClientIP, r.RemoteAddr).
			Msg("rejected notification attempt")
		w.Header().Set("WWW-Authenticate", `Bearer realm="dockhand",scope="registry:notifications:notify"`)
		h.sendError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBatchSize)

	var batch dto.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		log.Warn().Err(err).Msg("undecodable notification payload")
		h.sendError(w, http.StatusBadRequest, "invalid notification payload")
		return
	}

	if err := h.notifySvc.ProcessBatch(r.Context(), batch.Events); err != nil {
		h.sendProcessingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(dto.NotifyResponse{Status: "accepted"})
}

// authenticated checks the bearer token and its notify grant.
func (h *Handler) authenticated(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return h.verifier.Verify(token, domain.ScopeActionNotify)
}

// sendProcessingError maps service failures onto the webhook's status
// contract: structural failures are the caller's fault, dispatch
// failures are ours.
func (h *Handler) sendProcessingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformedBatch):
		h.log.Warn().Err(err).Msg("malformed notification batch")
		h.sendError(w, http.StatusBadRequest, "malformed notification batch")
	case errors.Is(err, domain.ErrInvalidEventAction), errors.Is(err, domain.ErrUnsupportedAction):
		h.log.Warn().Err(err).Msg("unprocessable notification batch")
		h.sendError(w, http.StatusUnprocessableEntity, "unprocessable notification batch")
	default:
		h.log.Error().Err(err).Msg("failed to process notification batch")
		h.sendError(w, http.StatusInternalServerError, "failed to process notifications")
	}
}

func (h *Handler) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message})
}
