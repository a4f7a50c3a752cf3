package events

import (
	"time"

	"github.com/spec-kit/parking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVehicleParked   EventType = "vehicle_parked"
	EventVehicleReleased EventType = "vehicle_released"
	EventTierFull        EventType = "tier_full"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Token     string      `json:"token,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// VehicleParkedPayload payload.
type VehicleParkedPayload struct {
	Tier          domain.Tier            `json:"tier"`
	Slot          int                    `json:"slot"`
	VehicleNumber string                 `json:"vehicle_number"`
	Category      domain.VehicleCategory `json:"category"`
}

// VehicleReleasedPayload payload.
type VehicleReleasedPayload struct {
	Tier          domain.Tier   `json:"tier"`
	Slot          int           `json:"slot"`
	VehicleNumber string        `json:"vehicle_number"`
	Duration      time.Duration `json:"duration_ns"`
}

// TierFullPayload is emitted when an assignment is refused for lack of slots.
type TierFullPayload struct {
	Tier     domain.Tier `json:"tier"`
	Capacity int         `json:"capacity"`
}
