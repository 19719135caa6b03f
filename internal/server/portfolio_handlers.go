package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/modules/portfolio"
)

// maxPositions caps the portfolio size. The cap exists to keep provider
// budget use predictable; it is an HTTP-layer policy, not a service
// invariant.
const maxPositions = 50

// PortfolioHandlers handles position management requests.
type PortfolioHandlers struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewPortfolioHandlers creates a new portfolio handler.
func NewPortfolioHandlers(service *portfolio.Service, log zerolog.Logger) *PortfolioHandlers {
	return &PortfolioHandlers{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers portfolio routes on the router.
func (h *PortfolioHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio/positions", func(r chi.Router) {
		r.Get("/", h.HandleListPositions)
		r.Post("/", h.HandleAddPosition)
		r.Delete("/{id}", h.HandleRemovePosition)
	})
}

type addPositionRequest struct {
	Symbol string  `json:"symbol"`
	Equity float64 `json:"equity"`
}

// HandleAddPosition handles POST /api/portfolio/positions. The position
// is accepted immediately and resolves in the background, so the reply
// is 202 with status pending.
func (h *PortfolioHandlers) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	var req addPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if h.service.Count() >= maxPositions {
		respondError(w, http.StatusConflict, "position limit reached")
		return
	}

	position, err := h.service.AddPosition(req.Symbol, req.Equity)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, position)
}

// HandleRemovePosition handles DELETE /api/portfolio/positions/{id}.
func (h *PortfolioHandlers) HandleRemovePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.service.RemovePosition(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to remove position")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "position not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListPositions handles GET /api/portfolio/positions.
func (h *PortfolioHandlers) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.Positions()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list positions")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, positions)
}
