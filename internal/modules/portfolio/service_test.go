package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundlens/internal/clients/alphavantage"
	"github.com/aristath/fundlens/internal/events"
)

func newTestService(t *testing.T, client alphavantage.ClientInterface) (*Service, *events.Bus) {
	db := setupPositionsDB(t)
	t.Cleanup(func() { db.Close() })

	bus := events.NewBus(zerolog.Nop())
	profiles := NewProfileService(client, nil, 0, 0, zerolog.Nop())
	return NewService(NewPositionRepository(db), profiles, bus, zerolog.Nop()), bus
}

func waitForStatus(t *testing.T, svc *Service, id string, status PositionStatus) Position {
	t.Helper()

	var found Position
	require.Eventually(t, func() bool {
		positions, err := svc.Positions()
		if err != nil {
			return false
		}
		for _, p := range positions {
			if p.ID == id && p.Status == status {
				found = p
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return found
}

func TestServiceAddPositionResolves(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{profile: spyProfile()})

	pos, err := svc.AddPosition(" spy ", 10000)
	require.NoError(t, err)
	assert.Equal(t, "SPY", pos.Symbol, "symbol canonicalized")
	assert.Equal(t, StatusPending, pos.Status)
	assert.NotEmpty(t, pos.ID)

	resolved := waitForStatus(t, svc, pos.ID, StatusReady)
	require.NotNil(t, resolved.Profile)
	assert.Equal(t, "SPY", resolved.Profile.Symbol)
	assert.Equal(t, ErrorNone, resolved.ErrorKind)
}

func TestServiceAddPositionValidation(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{profile: spyProfile()})

	_, err := svc.AddPosition("   ", 100)
	assert.Error(t, err, "blank symbol rejected")

	_, err = svc.AddPosition("SPY", -1)
	assert.Error(t, err, "negative equity rejected")

	pos, err := svc.AddPosition("SPY", 0)
	require.NoError(t, err, "zero equity is a valid placeholder position")
	assert.Equal(t, 0.0, pos.Equity)
}

func TestServiceFailedFetchRecordsErrorKind(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{profileErr: alphavantage.ErrSymbolNotFound{Symbol: "XYZ"}})

	pos, err := svc.AddPosition("XYZ", 500)
	require.NoError(t, err, "adding always succeeds; failure shows up on the position")

	failed := waitForStatus(t, svc, pos.ID, StatusFailed)
	assert.Equal(t, ErrorNotFound, failed.ErrorKind)
	assert.Nil(t, failed.Profile)
}

func TestServiceRemovePosition(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{profile: spyProfile()})

	pos, err := svc.AddPosition("SPY", 100)
	require.NoError(t, err)
	waitForStatus(t, svc, pos.ID, StatusReady)

	removed, err := svc.RemovePosition(pos.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, svc.Count())

	removed, err = svc.RemovePosition(pos.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second removal finds nothing")
}

func TestServiceLateResultDroppedAfterRemoval(t *testing.T) {
	gate := make(chan struct{})
	client := &stubClient{profile: spyProfile(), gate: gate}
	svc, _ := newTestService(t, client)

	pos, err := svc.AddPosition("SPY", 100)
	require.NoError(t, err)

	// Remove the position while its fetch is parked on the gate.
	removed, err := svc.RemovePosition(pos.ID)
	require.NoError(t, err)
	require.True(t, removed)

	close(gate)

	// The late result must not resurrect the position.
	assert.Never(t, func() bool {
		positions, err := svc.Positions()
		if err != nil {
			return true
		}
		return len(positions) != 0
	}, 200*time.Millisecond, 10*time.Millisecond)

	svc.mu.RLock()
	_, held := svc.resolutions[pos.ID]
	svc.mu.RUnlock()
	assert.False(t, held, "no resolution retained for a removed position")
}

func TestServiceRemoveRacingResolutionLeavesNoResolution(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{profile: spyProfile()})

	// Remove each position immediately so removal races its in-flight
	// resolution. Whichever order the two land in, the resolution map
	// must not keep an entry for a deleted row.
	for i := 0; i < 25; i++ {
		pos, err := svc.AddPosition("SPY", 100)
		require.NoError(t, err)
		removed, err := svc.RemovePosition(pos.ID)
		require.NoError(t, err)
		require.True(t, removed)
	}

	assert.Never(t, func() bool {
		svc.mu.RLock()
		defer svc.mu.RUnlock()
		return len(svc.resolutions) != 0
	}, 300*time.Millisecond, 10*time.Millisecond, "stale resolution for a removed position")
}

func TestServicePositionsOrderedByCreation(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{profile: spyProfile()})

	first, err := svc.AddPosition("SPY", 100)
	require.NoError(t, err)
	second, err := svc.AddPosition("QQQ", 200)
	require.NoError(t, err)

	positions, err := svc.Positions()
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, first.ID, positions[0].ID)
	assert.Equal(t, second.ID, positions[1].ID)
}

func TestServiceExposurePositions(t *testing.T) {
	client := &stubClient{profile: spyProfile()}
	svc, _ := newTestService(t, client)

	ready, err := svc.AddPosition("SPY", 10000)
	require.NoError(t, err)
	waitForStatus(t, svc, ready.ID, StatusReady)

	client.mu.Lock()
	client.profileErr = alphavantage.ErrNoHoldingData{Symbol: "BAD"}
	client.profile = nil
	client.mu.Unlock()

	failed, err := svc.AddPosition("BAD", 5000)
	require.NoError(t, err)
	waitForStatus(t, svc, failed.ID, StatusFailed)

	exposures, err := svc.ExposurePositions()
	require.NoError(t, err)
	require.Len(t, exposures, 2)

	assert.Equal(t, "SPY", exposures[0].Symbol)
	require.NotNil(t, exposures[0].Profile)
	assert.False(t, exposures[0].Failed)

	assert.Equal(t, "BAD", exposures[1].Symbol)
	assert.Nil(t, exposures[1].Profile)
	assert.True(t, exposures[1].Failed)
}

func TestServiceRehydrate(t *testing.T) {
	db := setupPositionsDB(t)
	t.Cleanup(func() { db.Close() })

	repo := NewPositionRepository(db)
	require.NoError(t, repo.Insert(PersistedPosition{ID: "restored", Symbol: "SPY", Equity: 100, CreatedAt: 1}))

	client := &stubClient{profile: spyProfile()}
	profiles := NewProfileService(client, nil, 0, 0, zerolog.Nop())
	svc := NewService(repo, profiles, nil, zerolog.Nop())

	require.NoError(t, svc.Rehydrate())

	resolved := waitForStatus(t, svc, "restored", StatusReady)
	require.NotNil(t, resolved.Profile)
	assert.Equal(t, "SPY", resolved.Profile.Symbol)
}

func TestServicePublishesPortfolioEvents(t *testing.T) {
	svc, bus := newTestService(t, &stubClient{profile: spyProfile()})

	ch, cancel := bus.Subscribe()
	defer cancel()

	pos, err := svc.AddPosition("SPY", 100)
	require.NoError(t, err)

	seen := make(map[string]bool)
	deadline := time.After(2 * time.Second)
	for !seen["added"] || !seen["resolved"] {
		select {
		case ev := <-ch:
			data, ok := ev.Data.(*events.PortfolioChangedData)
			require.True(t, ok)
			assert.Equal(t, pos.ID, data.PositionID)
			seen[data.Reason] = true
		case <-deadline:
			t.Fatalf("missing events, saw %v", seen)
		}
	}
}
