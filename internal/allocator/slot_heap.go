package allocator

import "container/heap"

// slotHeap is a min-heap of free slot numbers.
type slotHeap []int

var _ heap.Interface = (*slotHeap)(nil)

func (h slotHeap) Len() int           { return len(h) }
func (h slotHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *slotHeap) Push(x any) {
	*h = append(*h, x.(int))
}

func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	slot := old[n-1]
	*h = old[:n-1]
	return slot
}

// newSlotHeap returns a heap holding 1..capacity. An ascending slice already
// satisfies the heap property.
func newSlotHeap(capacity int) slotHeap {
	h := make(slotHeap, capacity)
	for i := range h {
		h[i] = i + 1
	}
	return h
}
