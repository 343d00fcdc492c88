package domain

import (
	"encoding/json"
	"fmt"
)

// InfluenceType identifies what kind of venue feature an influence source is
type InfluenceType string

const (
	InfluenceEntrance InfluenceType = "ENTRANCE"
	InfluenceStage    InfluenceType = "STAGE"
	InfluenceWalkway  InfluenceType = "WALKWAY"
)

// IsValid checks if the type is a known InfluenceType
func (t InfluenceType) IsValid() bool {
	switch t {
	case InfluenceEntrance, InfluenceStage, InfluenceWalkway:
		return true
	}
	return false
}

// Falloff shapes how an influence source's contribution decays with distance
type Falloff string

const (
	FalloffLinear      Falloff = "LINEAR"
	FalloffExponential Falloff = "EXPONENTIAL"
)

// IsValid checks if the falloff is a known Falloff
func (f Falloff) IsValid() bool {
	switch f {
	case FalloffLinear, FalloffExponential:
		return true
	}
	return false
}

// InfluenceSource is a point feature in a hall layout that boosts the
// desirability of nearby stalls. Coordinates are hall-relative percentages
// (0-100); radius is in absolute hall units.
type InfluenceSource struct {
	ID        string        `json:"id"`
	Type      InfluenceType `json:"type"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Radius    float64       `json:"radius"`
	Intensity float64       `json:"intensity"`
	Falloff   Falloff       `json:"falloff"`
}

// Entrance is a physical gate on the hall layout. Entrances only affect
// pricing through a matching InfluenceSource; they are kept for map rendering.
type Entrance struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	Label string  `json:"label"`
}

// Zone is a non-bookable region of the hall layout (walkways, stages, ...).
type Zone struct {
	Type     string            `json:"type"`
	Geometry Geometry          `json:"geometry"`
	Metadata map[string]string `json:"metadata"`
}

// HallLayout is the persisted influence map of a hall. The JSON shape is an
// external contract produced by the layout designer and must be parsed
// defensively.
type HallLayout struct {
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Entrances  []Entrance        `json:"entrances"`
	Influences []InfluenceSource `json:"influences"`
	Zones      []Zone            `json:"zones"`
}

// Hall is a physical venue section. Immutable during pricing.
type Hall struct {
	ID         string
	Name       string
	LayoutJSON string
}

// ParseLayout decodes and validates the hall's influence map. Influence
// sources with an unknown type or falloff are rejected rather than silently
// coerced; the pricing engine treats any error here as a soft failure.
func (h *Hall) ParseLayout() (*HallLayout, error) {
	if h.LayoutJSON == "" {
		return nil, fmt.Errorf("hall %s: empty layout: %w", h.ID, ErrGeometryParse)
	}

	var layout HallLayout
	if err := json.Unmarshal([]byte(h.LayoutJSON), &layout); err != nil {
		return nil, fmt.Errorf("hall %s: %v: %w", h.ID, err, ErrGeometryParse)
	}

	if layout.Width <= 0 || layout.Height <= 0 {
		return nil, fmt.Errorf("hall %s: non-positive dimensions %gx%g: %w",
			h.ID, layout.Width, layout.Height, ErrGeometryParse)
	}

	for _, inf := range layout.Influences {
		if !inf.Type.IsValid() {
			return nil, fmt.Errorf("hall %s: influence %s: unknown type %q: %w",
				h.ID, inf.ID, inf.Type, ErrGeometryParse)
		}
		if !inf.Falloff.IsValid() {
			return nil, fmt.Errorf("hall %s: influence %s: unknown falloff %q: %w",
				h.ID, inf.ID, inf.Falloff, ErrGeometryParse)
		}
	}

	return &layout, nil
}
