package pricing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
)

func testHall(layout string) *domain.Hall {
	return &domain.Hall{
		ID:         "hall-001",
		Name:       "Hall A",
		LayoutJSON: layout,
	}
}

func testTemplate(geometry string) *domain.StallTemplate {
	return &domain.StallTemplate{
		ID:                    "tpl-001",
		HallID:                "hall-001",
		Name:                  "A-01",
		Size:                  domain.StallSizeMedium,
		Category:              "fiction",
		BasePriceCents:        500000,
		DefaultProximityScore: 50,
		GeometryJSON:          geometry,
		Available:             true,
	}
}

func testStall(geometry string) *domain.EventStall {
	return &domain.EventStall{
		ID:            "stall-001",
		EventID:       "event-001",
		TemplateID:    "tpl-001",
		BaseRateCents: 500000,
		Multiplier:    1.0,
		GeometryJSON:  geometry,
		Status:        domain.EventStallAvailable,
	}
}

// Hall with one entrance influence dead center. A stall centered on the
// source collects the full intensity.
const centerEntranceLayout = `{
	"width": 1000, "height": 800,
	"influences": [
		{"id": "ent-1", "type": "ENTRANCE", "x": 50, "y": 50, "radius": 40, "intensity": 90, "falloff": "LINEAR"}
	]
}`

func TestEngine_Price_FullIntensityAtSourceCenter(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// Geometry {x:45,y:45,w:10,h:10} centers at (50,50) percent.
	stall := testStall(`{"x": 45, "y": 45, "w": 10, "h": 10}`)
	quote := engine.Price(stall, testTemplate(""), testHall(centerEntranceLayout))

	if quote.Score != 90 {
		t.Errorf("Score = %d, want 90", quote.Score)
	}
	if quote.ScaledScore != 4 {
		t.Errorf("ScaledScore = %d, want 4 (90/20 integer division)", quote.ScaledScore)
	}
	if quote.Breakdown.Fallback {
		t.Error("Breakdown.Fallback = true, want false")
	}
	if len(quote.Breakdown.Items) != 1 {
		t.Fatalf("Breakdown.Items = %d entries, want 1", len(quote.Breakdown.Items))
	}
	if quote.Breakdown.Items[0].Points != 90 {
		t.Errorf("Items[0].Points = %d, want 90", quote.Breakdown.Items[0].Points)
	}
}

func TestEngine_Price_FinalPriceArithmetic(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	stall := testStall(`{"x": 45, "y": 45, "w": 10, "h": 10}`)
	stall.BaseRateCents = 500000
	stall.Multiplier = 1.5
	stall.ProximityBonusCents = 50000

	quote := engine.Price(stall, testTemplate(""), testHall(centerEntranceLayout))

	if quote.FinalPriceCents != 800000 {
		t.Errorf("FinalPriceCents = %d, want 800000 (round(500000*1.5)+50000)", quote.FinalPriceCents)
	}
}

func TestEngine_Price_ZeroMultiplier(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	stall := testStall(`{"x": 45, "y": 45, "w": 10, "h": 10}`)
	stall.BaseRateCents = 500000
	stall.Multiplier = 0
	stall.ProximityBonusCents = 25000

	quote := engine.Price(stall, testTemplate(""), testHall(centerEntranceLayout))

	if quote.FinalPriceCents != 25000 {
		t.Errorf("FinalPriceCents = %d, want 25000 (comp stall keeps only the bonus)", quote.FinalPriceCents)
	}
}

func TestEngine_Price_Deterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	stall := testStall(`{"x": 30, "y": 40, "w": 8, "h": 6}`)
	hall := testHall(centerEntranceLayout)
	template := testTemplate("")

	first := engine.Price(stall, template, hall)
	for i := 0; i < 10; i++ {
		again := engine.Price(stall, template, hall)
		if again.FinalPriceCents != first.FinalPriceCents || again.Score != first.Score {
			t.Fatalf("Price() not deterministic: run %d got (%d, %d), want (%d, %d)",
				i, again.FinalPriceCents, again.Score, first.FinalPriceCents, first.Score)
		}
	}
}

func TestEngine_Price_ScoreGrowsOnApproach(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	hall := testHall(centerEntranceLayout)
	template := testTemplate("")

	// Stall centers stepping toward the source at (50,50): each step closes
	// the distance, so the score never decreases and strictly rises once
	// inside the radius.
	// Radius 40 in absolute units on a 1000-wide hall: the first two centers
	// sit outside it, the last three at distances 30, 10, 0.
	positions := []string{
		`{"x": 5, "y": 45, "w": 10, "h": 10}`,
		`{"x": 25, "y": 45, "w": 10, "h": 10}`,
		`{"x": 42, "y": 45, "w": 10, "h": 10}`,
		`{"x": 44, "y": 45, "w": 10, "h": 10}`,
		`{"x": 45, "y": 45, "w": 10, "h": 10}`,
	}

	prev := -1
	for _, geom := range positions {
		quote := engine.Price(testStall(geom), template, hall)
		if quote.Score < prev {
			t.Fatalf("score dropped to %d (prev %d) while approaching source, geometry %s",
				quote.Score, prev, geom)
		}
		prev = quote.Score
	}
	if prev != 90 {
		t.Errorf("score at source center = %d, want 90", prev)
	}
}

func TestEngine_Price_ScoreClamping(t *testing.T) {
	tests := []struct {
		name      string
		layout    string
		geometry  string
		wantScore int
	}{
		{
			name: "overlapping sources clamp to max",
			layout: `{
				"width": 1000, "height": 800,
				"influences": [
					{"id": "ent-1", "type": "ENTRANCE", "x": 50, "y": 50, "radius": 40, "intensity": 90, "falloff": "LINEAR"},
					{"id": "stage-1", "type": "STAGE", "x": 50, "y": 50, "radius": 40, "intensity": 80, "falloff": "LINEAR"}
				]
			}`,
			geometry:  `{"x": 45, "y": 45, "w": 10, "h": 10}`,
			wantScore: 100,
		},
		{
			name: "no influence in range clamps to min",
			layout: `{
				"width": 1000, "height": 800,
				"influences": [
					{"id": "ent-1", "type": "ENTRANCE", "x": 0, "y": 0, "radius": 10, "intensity": 90, "falloff": "LINEAR"}
				]
			}`,
			geometry:  `{"x": 90, "y": 90, "w": 5, "h": 5}`,
			wantScore: 5,
		},
		{
			name: "edge penalty pushes below floor",
			layout: `{
				"width": 1000, "height": 800,
				"influences": []
			}`,
			geometry:  `{"x": 0, "y": 40, "w": 5, "h": 5}`,
			wantScore: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(DefaultConfig())
			quote := engine.Price(testStall(tt.geometry), testTemplate(""), testHall(tt.layout))

			if quote.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", quote.Score, tt.wantScore)
			}
			if quote.Breakdown.Fallback {
				t.Error("Breakdown.Fallback = true, want false")
			}
		})
	}
}

func TestEngine_Price_EdgePenaltyLineItem(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// x=0 puts the stall on the boundary; the entrance still reaches it.
	layout := `{
		"width": 1000, "height": 800,
		"influences": [
			{"id": "ent-1", "type": "ENTRANCE", "x": 2, "y": 50, "radius": 600, "intensity": 60, "falloff": "LINEAR"}
		]
	}`
	quote := engine.Price(testStall(`{"x": 0, "y": 45, "w": 4, "h": 10}`), testTemplate(""), testHall(layout))

	found := false
	for _, item := range quote.Breakdown.Items {
		if item.Points == -DefaultConfig().EdgePenalty {
			found = true
		}
	}
	if !found {
		t.Errorf("breakdown missing edge penalty line item: %+v", quote.Breakdown.Items)
	}
}

func TestEngine_Price_ExponentialFalloff(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// Source at (0,50) percent = (0,400) abs. Stall center (10,50) percent =
	// (100,400) abs, distance 100 of radius 200: factor 0.5 linear, 0.25
	// squared.
	makeLayout := func(falloff string) string {
		return fmt.Sprintf(`{
			"width": 1000, "height": 800,
			"influences": [
				{"id": "ent-1", "type": "ENTRANCE", "x": 0, "y": 50, "radius": 200, "intensity": 80, "falloff": "%s"}
			]
		}`, falloff)
	}
	geometry := `{"x": 8, "y": 45, "w": 4, "h": 10}`

	linear := engine.Price(testStall(geometry), testTemplate(""), testHall(makeLayout("LINEAR")))
	exponential := engine.Price(testStall(geometry), testTemplate(""), testHall(makeLayout("EXPONENTIAL")))

	if linear.Score != 40 {
		t.Errorf("linear Score = %d, want 40 (floor(80*0.5))", linear.Score)
	}
	if exponential.Score != 20 {
		t.Errorf("exponential Score = %d, want 20 (floor(80*0.25))", exponential.Score)
	}
}

func TestEngine_Price_ZeroRadiusSkipped(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	layout := `{
		"width": 1000, "height": 800,
		"influences": [
			{"id": "ent-1", "type": "ENTRANCE", "x": 50, "y": 50, "radius": 0, "intensity": 90, "falloff": "LINEAR"},
			{"id": "ent-2", "type": "ENTRANCE", "x": 50, "y": 50, "radius": -5, "intensity": 90, "falloff": "LINEAR"}
		]
	}`
	quote := engine.Price(testStall(`{"x": 45, "y": 45, "w": 10, "h": 10}`), testTemplate(""), testHall(layout))

	if quote.Score != DefaultConfig().MinScore {
		t.Errorf("Score = %d, want %d (zero-radius sources skipped)", quote.Score, DefaultConfig().MinScore)
	}
	if len(quote.Breakdown.Items) != 0 {
		t.Errorf("Breakdown.Items = %d entries, want 0", len(quote.Breakdown.Items))
	}
}

func TestEngine_Price_FallbackOnBadLayout(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		geometry string
	}{
		{"malformed layout json", `{not json`, `{"x": 45, "y": 45, "w": 10, "h": 10}`},
		{"empty layout", ``, `{"x": 45, "y": 45, "w": 10, "h": 10}`},
		{"zero dimensions", `{"width": 0, "height": 800, "influences": []}`, `{"x": 45, "y": 45, "w": 10, "h": 10}`},
		{"unknown influence type", `{
			"width": 1000, "height": 800,
			"influences": [{"id": "x", "type": "FOUNTAIN", "x": 50, "y": 50, "radius": 40, "intensity": 90, "falloff": "LINEAR"}]
		}`, `{"x": 45, "y": 45, "w": 10, "h": 10}`},
		{"missing geometry", centerEntranceLayout, ``},
		{"malformed geometry", centerEntranceLayout, `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(DefaultConfig())
			template := testTemplate("")
			template.DefaultProximityScore = 50

			quote := engine.Price(testStall(tt.geometry), template, testHall(tt.layout))

			if !quote.Breakdown.Fallback {
				t.Fatal("Breakdown.Fallback = false, want true")
			}
			if quote.FallbackReason == nil {
				t.Fatal("FallbackReason = nil, want error")
			}
			if !errors.Is(quote.FallbackReason, domain.ErrGeometryParse) {
				t.Errorf("FallbackReason = %v, want ErrGeometryParse", quote.FallbackReason)
			}
			if quote.Score != 50 {
				t.Errorf("Score = %d, want 50 (template default)", quote.Score)
			}
			if quote.ScaledScore != 2 {
				t.Errorf("ScaledScore = %d, want 2", quote.ScaledScore)
			}
		})
	}
}

func TestEngine_Price_FallbackUsesTemplateGeometry(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// Stall carries no geometry override; the template geometry drives the
	// score, so no fallback.
	stall := testStall("")
	template := testTemplate(`{"x": 45, "y": 45, "w": 10, "h": 10}`)

	quote := engine.Price(stall, template, testHall(centerEntranceLayout))

	if quote.Breakdown.Fallback {
		t.Fatalf("Breakdown.Fallback = true, want false (template geometry available): %v", quote.FallbackReason)
	}
	if quote.Score != 90 {
		t.Errorf("Score = %d, want 90", quote.Score)
	}
}
