// Package events provides the in-process event bus used to push state
// changes to subscribers (the SSE stream, background jobs).
package events

import (
	"time"
)

// EventType identifies a class of event on the bus.
type EventType string

const (
	// PortfolioChanged fires whenever the position set or any
	// position's resolution state changes.
	PortfolioChanged EventType = "portfolio.changed"
	// SnapshotWritten fires after an exposure snapshot is persisted.
	SnapshotWritten EventType = "snapshot.written"
)

// EventData is the interface that all event data types must implement.
// This allows for type-safe event data while maintaining flexibility.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// Event is one published occurrence.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// PortfolioChangedData contains data for PortfolioChanged events
type PortfolioChangedData struct {
	PositionID string `json:"position_id,omitempty"`
	Symbol     string `json:"symbol,omitempty"`
	Reason     string `json:"reason"` // added, resolved, failed, removed
	Positions  int    `json:"positions"`
}

// EventType returns the event type for PortfolioChangedData
func (d *PortfolioChangedData) EventType() EventType {
	return PortfolioChanged
}

// SnapshotWrittenData contains data for SnapshotWritten events
type SnapshotWrittenData struct {
	SnapshotID int64   `json:"snapshot_id"`
	TotalValue float64 `json:"total_value"`
	Holdings   int     `json:"holdings"`
}

// EventType returns the event type for SnapshotWrittenData
func (d *SnapshotWrittenData) EventType() EventType {
	return SnapshotWritten
}
