package pricing

import (
	"fmt"
	"math"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
)

// Config holds the pricing constants. It is immutable once constructed and
// passed into the engine explicitly; there is no shared static state.
type Config struct {
	// MinScore and MaxScore bound the clamped proximity score.
	MinScore int
	MaxScore int
	// ScaleDivisor converts the clamped score into the vendor-facing rating
	// (integer division).
	ScaleDivisor int
	// EdgePenalty is subtracted from the raw score when a stall sits exactly
	// on the hall boundary (x=0 or y=0 in percent units).
	EdgePenalty int
	// DefaultProximityMultiplier scales a template's default score when the
	// geometry-based computation is unavailable.
	DefaultProximityMultiplier float64
}

// DefaultConfig returns the production pricing constants.
func DefaultConfig() Config {
	return Config{
		MinScore:                   5,
		MaxScore:                   100,
		ScaleDivisor:               20,
		EdgePenalty:                10,
		DefaultProximityMultiplier: 1.0,
	}
}

// BreakdownItem is one vendor-facing line of the pricing explanation.
type BreakdownItem struct {
	SourceID string               `json:"source_id,omitempty"`
	Type     domain.InfluenceType `json:"type,omitempty"`
	Label    string               `json:"label"`
	Points   int                  `json:"points"`
}

// Breakdown explains how a stall's proximity score was assembled.
type Breakdown struct {
	BaseRateCents int64           `json:"base_rate_cents"`
	Score         int             `json:"score"`
	ScaledScore   int             `json:"scaled_score"`
	Items         []BreakdownItem `json:"items"`
	Fallback      bool            `json:"fallback"`
}

// Quote is the result of pricing one stall.
type Quote struct {
	FinalPriceCents int64
	Score           int
	ScaledScore     int
	Breakdown       Breakdown
	// FallbackReason is set when the geometry-based score computation failed
	// and the template's default score was used instead. The caller records
	// it; pricing itself never fails.
	FallbackReason error
}

// Engine computes stall prices from a hall's influence map. Pure and
// deterministic: no side effects, no external calls.
type Engine struct {
	cfg Config
}

// NewEngine creates a pricing engine with the given constants.
func NewEngine(cfg Config) *Engine {
	if cfg.ScaleDivisor <= 0 {
		cfg.ScaleDivisor = DefaultConfig().ScaleDivisor
	}
	return &Engine{cfg: cfg}
}

// Price computes the final price, proximity score and breakdown for one event
// stall. The final price follows round(baseRate*multiplier)+bonus regardless
// of the score; the score only drives display and future repricing. Any
// layout or geometry failure degrades to the template's default score — Price
// never returns an error and must never block an inventory listing.
func (e *Engine) Price(stall *domain.EventStall, template *domain.StallTemplate, hall *domain.Hall) Quote {
	final := finalPriceCents(stall)

	score, items, err := e.proximityScore(stall, template, hall)
	if err != nil {
		score = e.clamp(int(math.Floor(float64(template.DefaultProximityScore) * e.cfg.DefaultProximityMultiplier)))
		return Quote{
			FinalPriceCents: final,
			Score:           score,
			ScaledScore:     score / e.cfg.ScaleDivisor,
			Breakdown: Breakdown{
				BaseRateCents: stall.BaseRateCents,
				Score:         score,
				ScaledScore:   score / e.cfg.ScaleDivisor,
				Fallback:      true,
			},
			FallbackReason: err,
		}
	}

	return Quote{
		FinalPriceCents: final,
		Score:           score,
		ScaledScore:     score / e.cfg.ScaleDivisor,
		Breakdown: Breakdown{
			BaseRateCents: stall.BaseRateCents,
			Score:         score,
			ScaledScore:   score / e.cfg.ScaleDivisor,
			Items:         items,
		},
	}
}

// finalPriceCents applies the arithmetic price invariant. Exposed through
// Quote so callers never re-derive it.
func finalPriceCents(stall *domain.EventStall) int64 {
	return int64(math.Round(float64(stall.BaseRateCents)*stall.Multiplier)) + stall.ProximityBonusCents
}

// proximityScore walks the hall's influence sources and sums their
// contributions at the stall's center.
func (e *Engine) proximityScore(stall *domain.EventStall, template *domain.StallTemplate, hall *domain.Hall) (int, []BreakdownItem, error) {
	layout, err := hall.ParseLayout()
	if err != nil {
		return 0, nil, err
	}

	geomJSON := stall.GeometryJSON
	if geomJSON == "" {
		geomJSON = template.GeometryJSON
	}
	geom, err := domain.ParseGeometry(geomJSON)
	if err != nil {
		return 0, nil, fmt.Errorf("stall %s: %w", stall.ID, err)
	}

	cx, cy := geom.Center()
	absX := cx / 100 * layout.Width
	absY := cy / 100 * layout.Height

	raw := 0
	var items []BreakdownItem
	for _, inf := range layout.Influences {
		contribution := contribution(inf, layout, absX, absY)
		if contribution <= 0 {
			continue
		}
		raw += contribution
		items = append(items, BreakdownItem{
			SourceID: inf.ID,
			Type:     inf.Type,
			Label:    fmt.Sprintf("near %s %s", inf.Type, inf.ID),
			Points:   contribution,
		})
	}

	// Stalls pinned to the hall boundary trade visibility for foot traffic.
	if geom.X == 0 || geom.Y == 0 {
		raw -= e.cfg.EdgePenalty
		items = append(items, BreakdownItem{
			Label:  "hall edge position",
			Points: -e.cfg.EdgePenalty,
		})
	}

	return e.clamp(raw), items, nil
}

// contribution evaluates one influence source at an absolute point.
// Overlapping sources are additive, so a stall may exceed any single
// source's intensity.
func contribution(inf domain.InfluenceSource, layout *domain.HallLayout, absX, absY float64) int {
	if inf.Radius <= 0 {
		return 0
	}

	srcX := inf.X / 100 * layout.Width
	srcY := inf.Y / 100 * layout.Height
	d := math.Hypot(absX-srcX, absY-srcY)
	if d >= inf.Radius {
		return 0
	}

	factor := 1 - d/inf.Radius
	if inf.Falloff == domain.FalloffExponential {
		factor = factor * factor
	}
	return int(math.Floor(inf.Intensity * factor))
}

func (e *Engine) clamp(score int) int {
	if score < e.cfg.MinScore {
		return e.cfg.MinScore
	}
	if score > e.cfg.MaxScore {
		return e.cfg.MaxScore
	}
	return score
}
