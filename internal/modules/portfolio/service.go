package portfolio

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/clients/alphavantage"
	"github.com/aristath/fundlens/internal/events"
	"github.com/aristath/fundlens/internal/modules/exposure"
)

// resolution is the in-memory outcome of a position's profile fetch.
type resolution struct {
	profile   *alphavantage.ETFProfile
	errorKind ErrorKind
}

// Service owns the position set. Rows are persisted immediately;
// profile resolution runs asynchronously and its outcome is held in
// memory keyed by position ID. A fetch whose position was removed
// mid-flight finds no row to attach to and its result is dropped.
type Service struct {
	repo     *PositionRepository
	profiles *ProfileService
	bus      *events.Bus
	log      zerolog.Logger

	mu          sync.RWMutex
	resolutions map[string]resolution
}

// NewService creates a new portfolio service. bus may be nil.
func NewService(
	repo *PositionRepository,
	profiles *ProfileService,
	bus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		profiles:    profiles,
		bus:         bus,
		log:         log.With().Str("component", "portfolio_service").Logger(),
		resolutions: make(map[string]resolution),
	}
}

// AddPosition creates a pending position and starts its profile fetch
// in the background. The fetch is never cancelled; once started it runs
// to completion or failure.
func (s *Service) AddPosition(symbol string, equity float64) (*Position, error) {
	symbol = CanonicalSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if equity < 0 {
		return nil, fmt.Errorf("equity must be >= 0, got %f", equity)
	}

	now := time.Now()
	persisted := PersistedPosition{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Equity:    equity,
		CreatedAt: now.Unix(),
	}

	if err := s.repo.Insert(persisted); err != nil {
		return nil, err
	}

	s.publish(&events.PortfolioChangedData{
		PositionID: persisted.ID,
		Symbol:     symbol,
		Reason:     "added",
		Positions:  s.count(),
	})

	go s.resolve(persisted.ID, symbol)

	return &Position{
		ID:        persisted.ID,
		Symbol:    symbol,
		Equity:    equity,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

// RemovePosition deletes a position. An in-flight fetch for it is not
// cancelled; its late result is dropped when it finds the ID gone.
func (s *Service) RemovePosition(id string) (bool, error) {
	// Row delete and resolution delete happen under one lock. resolve
	// checks row existence under the same lock, so it can never observe
	// the row alive and then record a resolution for an ID already gone.
	s.mu.Lock()
	removed, err := s.repo.Delete(id)
	delete(s.resolutions, id)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	if removed {
		s.publish(&events.PortfolioChangedData{
			PositionID: id,
			Reason:     "removed",
			Positions:  s.count(),
		})
	}

	return removed, nil
}

// Positions returns the current position set ordered by creation time,
// with resolution state merged in.
func (s *Service) Positions() ([]Position, error) {
	persisted, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := make([]Position, 0, len(persisted))
	for _, p := range persisted {
		pos := Position{
			ID:        p.ID,
			Symbol:    p.Symbol,
			Equity:    p.Equity,
			Status:    StatusPending,
			CreatedAt: time.Unix(p.CreatedAt, 0).UTC(),
		}
		if res, ok := s.resolutions[p.ID]; ok {
			if res.errorKind != ErrorNone {
				pos.Status = StatusFailed
				pos.ErrorKind = res.errorKind
			} else {
				pos.Status = StatusReady
				pos.Profile = res.profile
			}
		}
		positions = append(positions, pos)
	}

	return positions, nil
}

// Count returns the number of positions, 0 on repository failure.
func (s *Service) Count() int {
	return s.count()
}

// ExposurePositions converts the current position set into the
// engine-facing shape. Pending positions carry no profile and failed
// ones are flagged, so neither contributes to aggregation.
func (s *Service) ExposurePositions() ([]exposure.Position, error) {
	positions, err := s.Positions()
	if err != nil {
		return nil, err
	}

	result := make([]exposure.Position, 0, len(positions))
	for _, p := range positions {
		result = append(result, exposure.Position{
			Symbol:  p.Symbol,
			Equity:  p.Equity,
			Profile: p.Profile,
			Failed:  p.Status == StatusFailed,
		})
	}

	return result, nil
}

// Rehydrate re-resolves all persisted positions, typically at startup.
// Profiles usually come straight from the cache, so this is cheap
// unless entries have expired.
func (s *Service) Rehydrate() error {
	persisted, err := s.repo.List()
	if err != nil {
		return err
	}

	for _, p := range persisted {
		go s.resolve(p.ID, p.Symbol)
	}

	if len(persisted) > 0 {
		s.log.Info().Int("positions", len(persisted)).Msg("Rehydrating persisted positions")
	}

	return nil
}

// resolve fetches the profile for one position and records the outcome.
func (s *Service) resolve(id, symbol string) {
	profile, err := s.profiles.Fetch(symbol)

	s.mu.Lock()
	exists, repoErr := s.repo.Exists(id)
	if repoErr != nil || !exists {
		s.mu.Unlock()
		// Position removed (or unreadable) while the fetch was in
		// flight: drop the result.
		s.log.Debug().Str("id", id).Str("symbol", symbol).Msg("Dropping fetch result for removed position")
		return
	}

	res := resolution{}
	reason := "resolved"
	if err != nil {
		res.errorKind = ClassifyError(err)
		reason = "failed"
		s.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Str("error_kind", string(res.errorKind)).
			Msg("Profile fetch failed")
	} else {
		res.profile = profile
	}
	s.resolutions[id] = res
	s.mu.Unlock()

	s.publish(&events.PortfolioChangedData{
		PositionID: id,
		Symbol:     symbol,
		Reason:     reason,
		Positions:  s.count(),
	})
}

func (s *Service) count() int {
	count, err := s.repo.Count()
	if err != nil {
		return 0
	}
	return count
}

func (s *Service) publish(data events.EventData) {
	if s.bus != nil {
		s.bus.Publish(data)
	}
}
