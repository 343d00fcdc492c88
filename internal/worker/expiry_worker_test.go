package worker

import (
	"context"
	"testing"
	"time"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/dto"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/gateway"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
)

func TestExpiryWorker_ProcessStaleHolds(t *testing.T) {
	repo := repository.NewMemoryReservationRepository()
	repo.SeedStall("stall-001", "event-001", 500000)
	repo.SeedStall("stall-002", "event-001", 500000)

	svc := service.NewReservationService(repo,
		gateway.NewMockGateway(&gateway.MockGatewayConfig{AutoSettle: true}),
		&service.ReservationServiceConfig{
			Quota:   3,
			HoldTTL: time.Nanosecond,
		})
	ctx := context.Background()

	if _, err := svc.CreateReservations(ctx, "vendor-001", &dto.CreateReservationRequest{
		EventID:       "event-001",
		EventStallIDs: []string{"stall-001", "stall-002"},
	}); err != nil {
		t.Fatalf("setup create failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	w := NewExpiryWorker(svc, &ExpiryWorkerConfig{
		ScanInterval: time.Hour, // sweeps driven manually below
		BatchSize:    100,
	})

	w.processStaleHolds(ctx)

	stats := w.GetStats()
	if stats.TotalExpired != 2 {
		t.Errorf("TotalExpired = %d, want 2", stats.TotalExpired)
	}
	if stats.LastScanTime.IsZero() {
		t.Error("LastScanTime not recorded")
	}

	for _, id := range []string{"stall-001", "stall-002"} {
		status, _ := repo.StallStatus(id)
		if status != domain.EventStallAvailable {
			t.Errorf("stall %s status = %s, want AVAILABLE after sweep", id, status)
		}
	}

	// A second sweep finds nothing new.
	w.processStaleHolds(ctx)
	if stats := w.GetStats(); stats.TotalExpired != 2 {
		t.Errorf("TotalExpired after second sweep = %d, want 2", stats.TotalExpired)
	}
}

func TestExpiryWorker_StartStop(t *testing.T) {
	repo := repository.NewMemoryReservationRepository()
	svc := service.NewReservationService(repo,
		gateway.NewMockGateway(&gateway.MockGatewayConfig{AutoSettle: true}), nil)

	w := NewExpiryWorker(svc, &ExpiryWorkerConfig{
		ScanInterval: 10 * time.Millisecond,
		BatchSize:    10,
	})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Error("second Start() error = nil, want already-running error")
	}

	w.Stop()
	if stats := w.GetStats(); stats.IsRunning {
		t.Error("IsRunning = true after Stop")
	}

	// Stop is idempotent.
	w.Stop()
}
