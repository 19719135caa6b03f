package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/events"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// EventsStreamHandler streams bus events to browsers over Server-Sent
// Events.
type EventsStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus: bus,
		log: log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE). An optional
// types query parameter filters to a comma-separated set of event
// types.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var allowedTypes map[events.EventType]bool
	if typesFilter := r.URL.Query().Get("types"); typesFilter != "" {
		allowedTypes = make(map[events.EventType]bool)
		for _, t := range strings.Split(typesFilter, ",") {
			allowedTypes[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	eventChan, cancel := h.bus.Subscribe()
	defer cancel()

	h.log.Info().Msg("Client connected to event stream")

	fmt.Fprintf(w, "data: %s\n\n", h.encode(map[string]interface{}{
		"type": "connected",
	}))
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	done := r.Context().Done()

	for {
		select {
		case <-done:
			h.log.Info().Msg("Client disconnected from event stream")
			return

		case event, open := <-eventChan:
			if !open {
				return
			}
			if allowedTypes != nil && !allowedTypes[event.Type] {
				continue
			}

			fmt.Fprintf(w, "data: %s\n\n", h.encode(map[string]interface{}{
				"type":      string(event.Type),
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			}))
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprintf(w, "data: %s\n\n", h.encode(map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}))
			flusher.Flush()
		}
	}
}

func (h *EventsStreamHandler) encode(payload map[string]interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		return `{"error":"failed to encode event"}`
	}
	return string(data)
}
