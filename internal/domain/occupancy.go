package domain

import (
	"strconv"
	"strings"
	"time"
)

// Token is the handle for one active occupancy, formatted "<prefix><slot>".
type Token string

// NewToken builds the token for slot in tier.
func NewToken(tier Tier, slot int) Token {
	return Token(tier.TokenPrefix() + strconv.Itoa(slot))
}

// TierOf returns the tier named by the token prefix.
// It does not check that the slot part is well formed.
func (t Token) TierOf() (Tier, bool) {
	for _, tier := range Tiers {
		if strings.HasPrefix(string(t), tier.TokenPrefix()) {
			return tier, true
		}
	}
	return 0, false
}

// Occupancy is the record kept for an occupied slot.
type Occupancy struct {
	Token     Token
	Tier      Tier
	Slot      int
	VehicleID string
	Category  VehicleCategory
	ParkedAt  time.Time
}

// SlotState is one row of a status snapshot. Occupancy is nil for a free slot.
type SlotState struct {
	Tier      Tier
	Slot      int
	Occupancy *Occupancy
}

// Occupied reports whether the slot is taken.
func (s SlotState) Occupied() bool {
	return s.Occupancy != nil
}

// TierSummary aggregates slot counts for one tier.
type TierSummary struct {
	Tier     Tier
	Capacity int
	Free     int
	Occupied int
}
