package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gogpu/mockup"
	"github.com/gogpu/mockup/internal/app"
	"github.com/gogpu/mockup/internal/manifest"
	"github.com/gogpu/mockup/internal/store"
)

// Service is the application surface used by the handlers.
type Service interface {
	Generate(ctx context.Context, userID string, m *manifest.Manifest) (*app.Output, error)
	Generation(ctx context.Context, userID, id string) (*store.Generation, error)
	Generations(ctx context.Context, userID string, limit int) ([]store.Generation, error)
}

// Handler serves the composite and history endpoints.
type Handler struct {
	service          Service
	maxManifestBytes int64
}

// NewHandler creates a Handler. Manifests larger than maxManifestBytes are
// rejected; zero means no limit.
func NewHandler(service Service, maxManifestBytes int64) *Handler {
	return &Handler{service: service, maxManifestBytes: maxManifestBytes}
}

const maxListLimit = 100

// handleComposite renders the posted manifest. A stored image is answered
// with its generation record; otherwise the encoded image is the body.
func (h *Handler) handleComposite(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	m, err := manifest.Parse(r.Body, h.maxManifestBytes)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Generate(r.Context(), userID, m)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if out.Stored() {
		respondWithJSON(w, http.StatusCreated, out.Generation)
		return
	}

	w.Header().Set("Content-Type", out.Result.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Result.Data)))
	w.Header().Set("X-Generation-Id", out.Generation.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Result.Data)
}

func (h *Handler) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	list, err := h.service.Generations(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"generations": list})
}

func (h *Handler) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	g, err := h.service.Generation(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error   string `json:"error"`
	LayerID string `json:"layerId,omitempty"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var (
		loadErr  *mockup.ImageLoadError
		layerErr *mockup.LayerError
		encErr   *mockup.EncodingError
	)
	switch {
	case errors.Is(err, manifest.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, manifest.ErrInvalid),
		errors.Is(err, mockup.ErrEmptyInput),
		errors.As(err, &layerErr):
		return http.StatusBadRequest
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &encErr):
		return http.StatusInternalServerError
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if id, ok := mockup.LayerID(err); ok {
		resp.LayerID = id
	}
	if status >= http.StatusInternalServerError {
		mockup.Logger().Error("api: request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err))
		resp.Error = http.StatusText(status)
	}
	respondWithJSON(w, status, resp)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		mockup.Logger().Warn("api: write response", slog.Any("error", err))
	}
}
