package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// StallSize buckets templates by footprint
type StallSize string

const (
	StallSizeSmall  StallSize = "SMALL"
	StallSizeMedium StallSize = "MEDIUM"
	StallSizeLarge  StallSize = "LARGE"
)

// Geometry is the percent-unit bounding box of a stall inside its hall.
// The JSON shape {x,y,w,h} is an external contract.
type Geometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the stall's center point in percent units.
func (g Geometry) Center() (x, y float64) {
	return g.X + g.W/2, g.Y + g.H/2
}

// ParseGeometry decodes a stall geometry JSON blob.
func ParseGeometry(raw string) (*Geometry, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty geometry: %w", ErrGeometryParse)
	}
	var g Geometry
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrGeometryParse)
	}
	return &g, nil
}

// StallTemplate is a bookable physical slot belonging to a hall.
type StallTemplate struct {
	ID                    string
	HallID                string
	Name                  string
	Size                  StallSize
	Category              string
	BasePriceCents        int64
	DefaultProximityScore int
	GeometryJSON          string
	Available             bool // operator block flag, independent of reservations
}

// EventStallStatus is the inventory status of a stall within one event
type EventStallStatus string

const (
	EventStallAvailable EventStallStatus = "AVAILABLE"
	EventStallReserved  EventStallStatus = "RESERVED"
	EventStallBlocked   EventStallStatus = "BLOCKED"
)

// IsValid checks if the status is a valid EventStallStatus
func (s EventStallStatus) IsValid() bool {
	switch s {
	case EventStallAvailable, EventStallReserved, EventStallBlocked:
		return true
	}
	return false
}

// String returns the string representation of EventStallStatus
func (s EventStallStatus) String() string {
	return string(s)
}

// EventStall is a StallTemplate instantiated for one event, carrying
// event-specific pricing and occupancy status.
type EventStall struct {
	ID                  string           `json:"id"`
	EventID             string           `json:"event_id"`
	TemplateID          string           `json:"template_id"`
	BaseRateCents       int64            `json:"base_rate_cents"`
	Multiplier          float64          `json:"multiplier"`
	ProximityBonusCents int64            `json:"proximity_bonus_cents"`
	FinalPriceCents     int64            `json:"final_price_cents"`
	Status              EventStallStatus `json:"status"`
	GeometryJSON        string           `json:"geometry,omitempty"` // per-event override; falls back to template geometry
	PricingVersion      string           `json:"pricing_version,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ComputeFinalPrice applies the pricing invariant:
// final = round(baseRate * multiplier) + proximityBonus.
// Must be called whenever rate, multiplier or bonus changes.
func (s *EventStall) ComputeFinalPrice() {
	s.FinalPriceCents = int64(math.Round(float64(s.BaseRateCents)*s.Multiplier)) + s.ProximityBonusCents
}

// Reprice updates the pricing inputs, recomputes the final price and tags the
// new pricing version.
func (s *EventStall) Reprice(baseRateCents int64, multiplier float64, bonusCents int64, version string) {
	s.BaseRateCents = baseRateCents
	s.Multiplier = multiplier
	s.ProximityBonusCents = bonusCents
	s.PricingVersion = version
	s.ComputeFinalPrice()
	s.UpdatedAt = time.Now()
}

// IsBookable reports whether the stall can accept a new reservation.
func (s *EventStall) IsBookable() bool {
	return s.Status == EventStallAvailable
}
