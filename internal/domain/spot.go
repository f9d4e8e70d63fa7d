package domain

import "time"

// Spot is an individually addressable parking space within a zone.
// Occupied is derived state: it must always mirror the existence of a
// parked record referencing this spot.
type Spot struct {
	ID         string
	SpotNumber string
	Level      string
	Section    string
	ZoneID     string
	Occupied   bool
	CreatedAt  time.Time
}
