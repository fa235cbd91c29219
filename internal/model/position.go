// Package model defines the core domain models used throughout the application.
package model

import "time"

// Position represents a single device location fix. Immutable once produced.
type Position struct {
	CapturedAt time.Time
	Accuracy   *float64 // horizontal accuracy in meters; nil when the source reported none
	Latitude   float64
	Longitude  float64
	FromCache  bool
}
