package domain

import "strconv"

// Tier identifies one of the two fixed slot pools.
type Tier int

const (
	// Tier1 holds three- and four-wheeled vehicles.
	Tier1 Tier = 1
	// Tier2 holds two-wheeled vehicles.
	Tier2 Tier = 2
)

// Tiers lists every tier in display order.
var Tiers = []Tier{Tier1, Tier2}

// TokenPrefix is the fixed token prefix of the tier, e.g. "T1S".
func (t Tier) TokenPrefix() string {
	return "T" + strconv.Itoa(int(t)) + "S"
}

// Label is the human readable tier name.
func (t Tier) Label() string {
	switch t {
	case Tier1:
		return "Tier 1 (3/4-Wheelers)"
	case Tier2:
		return "Tier 2 (2-Wheelers)"
	default:
		return "Unknown tier"
	}
}

func (t Tier) String() string {
	return "TIER_" + strconv.Itoa(int(t))
}
