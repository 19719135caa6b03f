package snapshots

import (
	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/events"
	"github.com/aristath/fundlens/internal/modules/exposure"
)

// PositionSource supplies the current position set in the engine-facing
// shape. Implemented by the portfolio service.
type PositionSource interface {
	ExposurePositions() ([]exposure.Position, error)
}

// Service captures and persists exposure snapshots, announcing each one
// on the event bus.
type Service struct {
	positions PositionSource
	repo      *Repository
	bus       *events.Bus
	log       zerolog.Logger
}

// NewService creates a new snapshot service. bus may be nil.
func NewService(positions PositionSource, repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		positions: positions,
		repo:      repo,
		bus:       bus,
		log:       log.With().Str("component", "snapshot_service").Logger(),
	}
}

// CaptureNow aggregates the current positions and stores the result.
func (s *Service) CaptureNow() (Snapshot, error) {
	positions, err := s.positions.ExposurePositions()
	if err != nil {
		return Snapshot{}, err
	}

	saved, err := s.repo.Save(Capture(positions))
	if err != nil {
		return Snapshot{}, err
	}

	if s.bus != nil {
		s.bus.Publish(&events.SnapshotWrittenData{
			SnapshotID: saved.ID,
			TotalValue: saved.Stats.TotalEquity,
			Holdings:   len(saved.Holdings),
		})
	}

	s.log.Info().
		Int64("snapshot_id", saved.ID).
		Float64("total_equity", saved.Stats.TotalEquity).
		Int("holdings", len(saved.Holdings)).
		Msg("Exposure snapshot captured")

	return saved, nil
}

// List returns stored snapshots newest first.
func (s *Service) List(limit int) ([]Snapshot, error) {
	return s.repo.List(limit)
}

// Latest returns the most recent snapshot, or nil when none exist.
func (s *Service) Latest() (*Snapshot, error) {
	return s.repo.Latest()
}
