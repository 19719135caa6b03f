package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/modules/snapshots"
)

// defaultSnapshotLimit bounds the history list unless the client asks
// for more.
const defaultSnapshotLimit = 30

// SnapshotHandlers serves exposure snapshot history.
type SnapshotHandlers struct {
	service *snapshots.Service
	log     zerolog.Logger
}

// NewSnapshotHandlers creates a new snapshot handler.
func NewSnapshotHandlers(service *snapshots.Service, log zerolog.Logger) *SnapshotHandlers {
	return &SnapshotHandlers{
		service: service,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// RegisterRoutes registers snapshot routes on the router.
func (h *SnapshotHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCapture)
		r.Get("/latest", h.HandleLatest)
	})
}

// HandleList handles GET /api/snapshots?limit=N.
func (h *SnapshotHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	list, err := h.service.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []snapshots.Snapshot{}
	}

	respondJSON(w, http.StatusOK, list)
}

// HandleCapture handles POST /api/snapshots: capture the current view
// on demand.
func (h *SnapshotHandlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.CaptureNow()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to capture snapshot")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, snapshot)
}

// HandleLatest handles GET /api/snapshots/latest.
func (h *SnapshotHandlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.service.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest snapshot")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if latest == nil {
		respondError(w, http.StatusNotFound, "no snapshots yet")
		return
	}

	respondJSON(w, http.StatusOK, latest)
}
