// Package allocator implements lowest-slot-first allocation over the two
// parking tiers.
package allocator

import (
	"fmt"
	"time"

	"github.com/spec-kit/parking-service/internal/domain"
)

// SlotAllocator owns one pool per tier. Operations on different tiers never
// contend with each other.
type SlotAllocator struct {
	tiers map[domain.Tier]*tierPool
	now   func() time.Time
}

// NewSlotAllocator seeds Tier 1 and Tier 2 with slots 1..capacity.
// A zero capacity leaves the tier permanently full.
func NewSlotAllocator(tier1Capacity, tier2Capacity int) (*SlotAllocator, error) {
	if tier1Capacity < 0 {
		return nil, fmt.Errorf("%w: tier 1 capacity %d", ErrInvalidCapacity, tier1Capacity)
	}
	if tier2Capacity < 0 {
		return nil, fmt.Errorf("%w: tier 2 capacity %d", ErrInvalidCapacity, tier2Capacity)
	}
	return &SlotAllocator{
		tiers: map[domain.Tier]*tierPool{
			domain.Tier1: newTierPool(domain.Tier1, tier1Capacity),
			domain.Tier2: newTierPool(domain.Tier2, tier2Capacity),
		},
		now: time.Now,
	}, nil
}

// Assign parks vehicleID in the lowest free slot of the tier serving category.
func (a *SlotAllocator) Assign(category domain.VehicleCategory, vehicleID string) (domain.Occupancy, error) {
	tier, ok := category.Tier()
	if !ok {
		return domain.Occupancy{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return a.tiers[tier].assign(vehicleID, category, a.now())
}

// Release frees the slot held by token and returns the record that was removed.
func (a *SlotAllocator) Release(token domain.Token) (domain.Occupancy, error) {
	pool, err := a.poolFor(token)
	if err != nil {
		return domain.Occupancy{}, err
	}
	return pool.release(token)
}

// Lookup returns the active record for token without changing state.
func (a *SlotAllocator) Lookup(token domain.Token) (domain.Occupancy, error) {
	pool, err := a.poolFor(token)
	if err != nil {
		return domain.Occupancy{}, err
	}
	return pool.lookup(token)
}

// Snapshot lists every slot of Tier 1 then Tier 2 in ascending slot order.
func (a *SlotAllocator) Snapshot() []domain.SlotState {
	var states []domain.SlotState
	for _, tier := range domain.Tiers {
		states = append(states, a.tiers[tier].snapshot()...)
	}
	return states
}

// Summary returns slot counts per tier in display order.
func (a *SlotAllocator) Summary() []domain.TierSummary {
	summaries := make([]domain.TierSummary, 0, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		summaries = append(summaries, a.tiers[tier].summary())
	}
	return summaries
}

func (a *SlotAllocator) poolFor(token domain.Token) (*tierPool, error) {
	tier, ok := token.TierOf()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTokenNotFound, token)
	}
	return a.tiers[tier], nil
}
