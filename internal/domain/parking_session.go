package domain

import "time"

// ParkingSession is the audit row spanning one park/release cycle of a token.
type ParkingSession struct {
	ID            string
	Token         Token
	Tier          Tier
	Slot          int
	VehicleNumber string
	Category      VehicleCategory
	ParkedAt      time.Time
	ReleasedAt    *time.Time
}
