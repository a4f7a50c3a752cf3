package allocator

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/parking-service/internal/domain"
)

// tierPool is the free pool and occupancy table of one tier. Both are guarded
// by mu so that every transition is observed as a single step.
type tierPool struct {
	mu       sync.Mutex
	tier     domain.Tier
	capacity int
	free     slotHeap
	occupied map[domain.Token]domain.Occupancy
}

func newTierPool(tier domain.Tier, capacity int) *tierPool {
	return &tierPool{
		tier:     tier,
		capacity: capacity,
		free:     newSlotHeap(capacity),
		occupied: make(map[domain.Token]domain.Occupancy, capacity),
	}
}

func (p *tierPool) assign(vehicleID string, category domain.VehicleCategory, now time.Time) (domain.Occupancy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.free.Len() == 0 {
		return domain.Occupancy{}, fmt.Errorf("%w: %s", ErrNoCapacity, p.tier)
	}
	slot := heap.Pop(&p.free).(int)
	occ := domain.Occupancy{
		Token:     domain.NewToken(p.tier, slot),
		Tier:      p.tier,
		Slot:      slot,
		VehicleID: vehicleID,
		Category:  category,
		ParkedAt:  now,
	}
	p.occupied[occ.Token] = occ
	return occ, nil
}

func (p *tierPool) release(token domain.Token) (domain.Occupancy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	occ, ok := p.occupied[token]
	if !ok {
		return domain.Occupancy{}, fmt.Errorf("%w: %q", ErrTokenNotFound, token)
	}
	delete(p.occupied, token)
	heap.Push(&p.free, occ.Slot)
	return occ, nil
}

func (p *tierPool) lookup(token domain.Token) (domain.Occupancy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	occ, ok := p.occupied[token]
	if !ok {
		return domain.Occupancy{}, fmt.Errorf("%w: %q", ErrTokenNotFound, token)
	}
	return occ, nil
}

func (p *tierPool) snapshot() []domain.SlotState {
	p.mu.Lock()
	defer p.mu.Unlock()

	states := make([]domain.SlotState, 0, p.capacity)
	for slot := 1; slot <= p.capacity; slot++ {
		state := domain.SlotState{Tier: p.tier, Slot: slot}
		if occ, ok := p.occupied[domain.NewToken(p.tier, slot)]; ok {
			occ := occ
			state.Occupancy = &occ
		}
		states = append(states, state)
	}
	return states
}

func (p *tierPool) summary() domain.TierSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	return domain.TierSummary{
		Tier:     p.tier,
		Capacity: p.capacity,
		Free:     p.free.Len(),
		Occupied: len(p.occupied),
	}
}
