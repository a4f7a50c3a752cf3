package dto

import (
	"time"

	"github.com/spec-kit/parking-service/internal/domain"
)

// ParkVehicleRequest payload.
type ParkVehicleRequest struct {
	VehicleType     *int   `json:"vehicle_type"`
	VehicleNumber   string `json:"vehicle_number"`
	PaymentApproved bool   `json:"payment_approved"`
}

// OccupancyResponse describes one occupied slot.
type OccupancyResponse struct {
	Token         domain.Token           `json:"token"`
	Slot          int                    `json:"slot"`
	Tier          domain.Tier            `json:"tier"`
	VehicleNumber string                 `json:"vehicle_number"`
	Category      domain.VehicleCategory `json:"category"`
	ParkedAt      time.Time              `json:"parked_at"`
}

// ReleaseResponse is returned after a vehicle leaves.
type ReleaseResponse struct {
	Token         domain.Token `json:"token"`
	Slot          int          `json:"slot"`
	Tier          domain.Tier  `json:"tier"`
	VehicleNumber string       `json:"vehicle_number"`
}

// TierSummaryResponse aggregates one tier.
type TierSummaryResponse struct {
	Tier     domain.Tier `json:"tier"`
	Label    string      `json:"label"`
	Capacity int         `json:"capacity"`
	Free     int         `json:"free"`
	Occupied int         `json:"occupied"`
}

// SlotResponse is one row of the slot listing.
type SlotResponse struct {
	Tier          domain.Tier   `json:"tier"`
	Slot          int           `json:"slot"`
	Occupied      bool          `json:"occupied"`
	Token         *domain.Token `json:"token,omitempty"`
	VehicleNumber *string       `json:"vehicle_number,omitempty"`
}

// SlotStatusResponse bundles tier counts with every slot.
type SlotStatusResponse struct {
	Tiers []TierSummaryResponse `json:"tiers"`
	Slots []SlotResponse        `json:"slots"`
}

// ParkingSessionResponse is one audit entry.
type ParkingSessionResponse struct {
	ID            string                 `json:"id"`
	Token         domain.Token           `json:"token"`
	Tier          domain.Tier            `json:"tier"`
	Slot          int                    `json:"slot"`
	VehicleNumber string                 `json:"vehicle_number"`
	Category      domain.VehicleCategory `json:"category"`
	ParkedAt      time.Time              `json:"parked_at"`
	ReleasedAt    *time.Time             `json:"released_at"`
}
