package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/modules/exposure"
	"github.com/aristath/fundlens/internal/modules/portfolio"
)

// ExposureHandlers serves the aggregated exposure views. Each request
// recomputes from the current position set; the engine is pure and
// cheap relative to a network fetch.
type ExposureHandlers struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewExposureHandlers creates a new exposure handler.
func NewExposureHandlers(service *portfolio.Service, log zerolog.Logger) *ExposureHandlers {
	return &ExposureHandlers{
		service: service,
		log:     log.With().Str("handler", "exposure").Logger(),
	}
}

// RegisterRoutes registers exposure routes on the router.
func (h *ExposureHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/exposure", func(r chi.Router) {
		r.Get("/holdings", h.HandleHoldings)
		r.Get("/sectors", h.HandleSectors)
		r.Get("/stats", h.HandleStats)
		r.Get("/concentration", h.HandleConcentration)
	})
}

// HandleHoldings handles GET /api/exposure/holdings.
func (h *ExposureHandlers) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	positions, ok := h.positions(w)
	if !ok {
		return
	}

	holdings := exposure.AggregateHoldings(positions)
	if holdings == nil {
		holdings = []exposure.AggregatedHolding{}
	}
	respondJSON(w, http.StatusOK, holdings)
}

// HandleSectors handles GET /api/exposure/sectors.
func (h *ExposureHandlers) HandleSectors(w http.ResponseWriter, r *http.Request) {
	positions, ok := h.positions(w)
	if !ok {
		return
	}

	sectors := exposure.AggregateSectors(positions)
	if sectors == nil {
		sectors = []exposure.AggregatedSector{}
	}
	respondJSON(w, http.StatusOK, sectors)
}

// HandleStats handles GET /api/exposure/stats.
func (h *ExposureHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	positions, ok := h.positions(w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, exposure.ComputeStats(positions))
}

// HandleConcentration handles GET /api/exposure/concentration.
func (h *ExposureHandlers) HandleConcentration(w http.ResponseWriter, r *http.Request) {
	positions, ok := h.positions(w)
	if !ok {
		return
	}

	metrics := exposure.Concentration(exposure.AggregateHoldings(positions))
	respondJSON(w, http.StatusOK, metrics)
}

func (h *ExposureHandlers) positions(w http.ResponseWriter) ([]exposure.Position, bool) {
	positions, err := h.service.ExposurePositions()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load positions for aggregation")
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return positions, true
}
