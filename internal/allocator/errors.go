package allocator

import "errors"

var (
	// ErrInvalidCategory is returned when Assign receives an unclassifiable vehicle.
	ErrInvalidCategory = errors.New("invalid vehicle category")
	// ErrNoCapacity is returned when the target tier has no free slot.
	ErrNoCapacity = errors.New("no free slot in tier")
	// ErrTokenNotFound covers unknown prefixes as well as stale or unknown tokens.
	ErrTokenNotFound = errors.New("token not found")
	// ErrInvalidCapacity is returned for a negative tier capacity.
	ErrInvalidCapacity = errors.New("tier capacity must not be negative")
)
