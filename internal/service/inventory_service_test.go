package service

import (
	"context"
	"errors"
	"testing"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/pricing"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
)

// MockStallRepository is a func-field mock for the stall repository
type MockStallRepository struct {
	GetViewFunc                 func(ctx context.Context, eventStallID string) (*repository.StallView, error)
	ListViewsByEventFunc        func(ctx context.Context, eventID string) ([]*repository.StallView, error)
	SetTemplateAvailabilityFunc func(ctx context.Context, templateID string, available bool) error
	SetEventStallStatusFunc     func(ctx context.Context, eventStallID string, status domain.EventStallStatus) error
	BulkRepriceFunc             func(ctx context.Context, eventID string, percentage float64, version string) (int64, error)

	listCalls int
}

func (m *MockStallRepository) GetView(ctx context.Context, eventStallID string) (*repository.StallView, error) {
	if m.GetViewFunc != nil {
		return m.GetViewFunc(ctx, eventStallID)
	}
	return nil, domain.ErrEventStallNotFound
}

func (m *MockStallRepository) ListViewsByEvent(ctx context.Context, eventID string) ([]*repository.StallView, error) {
	m.listCalls++
	if m.ListViewsByEventFunc != nil {
		return m.ListViewsByEventFunc(ctx, eventID)
	}
	return nil, nil
}

func (m *MockStallRepository) SetTemplateAvailability(ctx context.Context, templateID string, available bool) error {
	if m.SetTemplateAvailabilityFunc != nil {
		return m.SetTemplateAvailabilityFunc(ctx, templateID, available)
	}
	return nil
}

func (m *MockStallRepository) SetEventStallStatus(ctx context.Context, eventStallID string, status domain.EventStallStatus) error {
	if m.SetEventStallStatusFunc != nil {
		return m.SetEventStallStatusFunc(ctx, eventStallID, status)
	}
	return nil
}

func (m *MockStallRepository) BulkReprice(ctx context.Context, eventID string, percentage float64, version string) (int64, error) {
	if m.BulkRepriceFunc != nil {
		return m.BulkRepriceFunc(ctx, eventID, percentage, version)
	}
	return 0, nil
}

const inventoryHallLayout = `{
	"width": 1000, "height": 800,
	"influences": [
		{"id": "ent-1", "type": "ENTRANCE", "x": 50, "y": 50, "radius": 40, "intensity": 90, "falloff": "LINEAR"}
	]
}`

func inventoryView(id string) *repository.StallView {
	return &repository.StallView{
		Stall: &domain.EventStall{
			ID:            id,
			EventID:       "event-001",
			TemplateID:    "tpl-" + id,
			BaseRateCents: 500000,
			Multiplier:    1.0,
			GeometryJSON:  `{"x": 45, "y": 45, "w": 10, "h": 10}`,
			Status:        domain.EventStallAvailable,
		},
		Template: &domain.StallTemplate{
			ID:                    "tpl-" + id,
			HallID:                "hall-001",
			Name:                  "A-" + id,
			Size:                  domain.StallSizeMedium,
			BasePriceCents:        500000,
			DefaultProximityScore: 50,
			Available:             true,
		},
		Hall: &domain.Hall{
			ID:         "hall-001",
			Name:       "Hall A",
			LayoutJSON: inventoryHallLayout,
		},
	}
}

func newTestInventoryService(repo repository.StallRepository) InventoryService {
	return NewInventoryService(repo, pricing.NewEngine(pricing.DefaultConfig()), nil, nil)
}

func TestInventoryService_GetFloorMap(t *testing.T) {
	repo := &MockStallRepository{
		ListViewsByEventFunc: func(ctx context.Context, eventID string) ([]*repository.StallView, error) {
			return []*repository.StallView{inventoryView("s1"), inventoryView("s2")}, nil
		},
	}
	svc := newTestInventoryService(repo)

	resp, err := svc.GetFloorMap(context.Background(), "event-001")
	if err != nil {
		t.Fatalf("GetFloorMap() error = %v", err)
	}
	if resp.Total != 2 || len(resp.Stalls) != 2 {
		t.Fatalf("Total = %d, stalls = %d, want 2/2", resp.Total, len(resp.Stalls))
	}
	first := resp.Stalls[0]
	if first.FinalPriceCents != 500000 {
		t.Errorf("FinalPriceCents = %d, want 500000", first.FinalPriceCents)
	}
	if first.ProximityScore != 90 {
		t.Errorf("ProximityScore = %d, want 90 (stall centered on the entrance)", first.ProximityScore)
	}
	if first.Reserved {
		t.Error("Reserved = true for a free stall, want false")
	}
	if first.OccupiedBy != "" {
		t.Errorf("OccupiedBy = %q for a free stall, want empty", first.OccupiedBy)
	}

	// Without a cache client every read goes to the repository.
	if _, err := svc.GetFloorMap(context.Background(), "event-001"); err != nil {
		t.Fatalf("second GetFloorMap() error = %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("repository list calls = %d, want 2", repo.listCalls)
	}
}

func TestInventoryService_GetFloorMap_PricingFailureDegrades(t *testing.T) {
	broken := inventoryView("s-broken")
	broken.Hall.LayoutJSON = `{"width": not-json`
	repo := &MockStallRepository{
		ListViewsByEventFunc: func(ctx context.Context, eventID string) ([]*repository.StallView, error) {
			return []*repository.StallView{inventoryView("s-ok"), broken}, nil
		},
	}
	svc := newTestInventoryService(repo)

	resp, err := svc.GetFloorMap(context.Background(), "event-001")
	if err != nil {
		t.Fatalf("GetFloorMap() error = %v, want degraded success", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2: a broken layout must not drop the stall", resp.Total)
	}

	var degraded, healthy int
	for _, stall := range resp.Stalls {
		if stall.PriceFallback {
			degraded++
			// Fallback pricing works off the template default score.
			if stall.FinalPriceCents != 500000 {
				t.Errorf("fallback FinalPriceCents = %d, want 500000", stall.FinalPriceCents)
			}
		} else {
			healthy++
		}
	}
	if degraded != 1 || healthy != 1 {
		t.Errorf("degraded/healthy = %d/%d, want 1/1", degraded, healthy)
	}
}

func TestInventoryService_OccupancyOverlay(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(v *repository.StallView)
		wantReserved   bool
		wantOccupiedBy string
	}{
		{
			name:         "free stall",
			mutate:       func(v *repository.StallView) {},
			wantReserved: false,
		},
		{
			name: "active reservation shows vendor name",
			mutate: func(v *repository.StallView) {
				v.Stall.Status = domain.EventStallReserved
				v.ActiveReservation = true
				v.ReservedBy = "Otterbound Books"
			},
			wantReserved:   true,
			wantOccupiedBy: "Otterbound Books",
		},
		{
			name: "operator-blocked stall",
			mutate: func(v *repository.StallView) {
				v.Stall.Status = domain.EventStallBlocked
			},
			wantReserved:   true,
			wantOccupiedBy: "BLOCKED",
		},
		{
			name: "template pulled from sale",
			mutate: func(v *repository.StallView) {
				v.Template.Available = false
			},
			wantReserved:   true,
			wantOccupiedBy: "BLOCKED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := inventoryView("s1")
			tt.mutate(view)
			repo := &MockStallRepository{
				GetViewFunc: func(ctx context.Context, eventStallID string) (*repository.StallView, error) {
					return view, nil
				},
			}
			svc := newTestInventoryService(repo)

			resp, err := svc.GetStall(context.Background(), "s1")
			if err != nil {
				t.Fatalf("GetStall() error = %v", err)
			}
			if resp.Reserved != tt.wantReserved {
				t.Errorf("Reserved = %v, want %v", resp.Reserved, tt.wantReserved)
			}
			if resp.OccupiedBy != tt.wantOccupiedBy {
				t.Errorf("OccupiedBy = %q, want %q", resp.OccupiedBy, tt.wantOccupiedBy)
			}
		})
	}
}

func TestInventoryService_GetStall_Errors(t *testing.T) {
	svc := newTestInventoryService(&MockStallRepository{})

	if _, err := svc.GetStall(context.Background(), ""); !errors.Is(err, domain.ErrInvalidStallID) {
		t.Errorf("empty id error = %v, want ErrInvalidStallID", err)
	}
	if _, err := svc.GetStall(context.Background(), "no-such-stall"); !errors.Is(err, domain.ErrEventStallNotFound) {
		t.Errorf("unknown stall error = %v, want ErrStallNotFound", err)
	}
	if _, err := svc.GetFloorMap(context.Background(), ""); !errors.Is(err, domain.ErrInvalidEventID) {
		t.Errorf("empty event error = %v, want ErrInvalidEventID", err)
	}
}
