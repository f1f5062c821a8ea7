package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	CatalogRebuildStart    EventType = "CATALOG_REBUILD_START"
	CatalogRebuildComplete EventType = "CATALOG_REBUILD_COMPLETE"
	CatalogRebuildFailed   EventType = "CATALOG_REBUILD_FAILED"
	DiscoveryCompleted     EventType = "DISCOVERY_COMPLETED"
	DiscoveryValidationHit EventType = "DISCOVERY_VALIDATION_REJECTED"
	PartialSearchFailure   EventType = "PARTIAL_SEARCH_FAILURE"
	SemanticFallback       EventType = "SEMANTIC_FALLBACK"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager handles event emission and logging
type Manager struct {
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
	}
}

// Emit emits an event
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")
}
