package events

import (
	"time"

	"github.com/spec-kit/employee-directory/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCollectionHydrated  EventType = "collection_hydrated"
	EventEmployeeAdded       EventType = "employee_added"
	EventCollectionSorted    EventType = "collection_sorted"
	EventCollectionRefreshed EventType = "collection_refreshed"
	EventPersistFailed       EventType = "persist_failed"
)

// AllEventTypes lists every event the directory emits.
var AllEventTypes = []EventType{
	EventCollectionHydrated,
	EventEmployeeAdded,
	EventCollectionSorted,
	EventCollectionRefreshed,
	EventPersistFailed,
}

// Event represents a domain event emitted by the directory service.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// CollectionHydratedPayload payload.
type CollectionHydratedPayload struct {
	Source domain.HydrationSource `json:"source"`
	Count  int                    `json:"count"`
}

// EmployeeAddedPayload payload.
type EmployeeAddedPayload struct {
	Employee domain.Employee `json:"employee"`
	Count    int             `json:"count"`
}

// CollectionSortedPayload payload.
type CollectionSortedPayload struct {
	Count int `json:"count"`
}

// CollectionRefreshedPayload payload.
type CollectionRefreshedPayload struct {
	Replaced bool `json:"replaced"`
	Count    int  `json:"count"`
}

// PersistFailedPayload payload.
type PersistFailedPayload struct {
	Operation string `json:"operation"`
	Error     string `json:"error"`
}
