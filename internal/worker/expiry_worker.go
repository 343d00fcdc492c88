package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
)

// ExpiryWorkerConfig contains configuration for the expiry worker
type ExpiryWorkerConfig struct {
	// ScanInterval is the interval between sweeps for stale payment holds
	ScanInterval time.Duration
	// BatchSize is the number of holds to release in each sweep
	BatchSize int
}

// DefaultExpiryWorkerConfig returns default configuration
func DefaultExpiryWorkerConfig() *ExpiryWorkerConfig {
	return &ExpiryWorkerConfig{
		ScanInterval: 30 * time.Second,
		BatchSize:    100,
	}
}

// ExpiryWorker sweeps PENDING_PAYMENT holds whose TTL has lapsed and
// releases their stalls. The sweep is the authority on expiry: nothing else
// in the system flips a hold to EXPIRED.
type ExpiryWorker struct {
	reservations service.ReservationService
	config       *ExpiryWorkerConfig
	log          *logger.Logger
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool

	// Stats
	totalExpired int64
	lastScanTime time.Time
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(reservations service.ReservationService, config *ExpiryWorkerConfig) *ExpiryWorker {
	if config == nil {
		config = DefaultExpiryWorkerConfig()
	}

	return &ExpiryWorker{
		reservations: reservations,
		config:       config,
		log:          logger.Get(),
		stopCh:       make(chan struct{}),
	}
}

// Start starts the expiry worker
func (w *ExpiryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("expiry worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting expiry worker")

	w.wg.Add(1)
	go w.sweep(ctx)

	return nil
}

// Stop stops the expiry worker
func (w *ExpiryWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping expiry worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Expiry worker stopped")
}

// sweep periodically releases stale holds
func (w *ExpiryWorker) sweep(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.processStaleHolds(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processStaleHolds(ctx)
		}
	}
}

// processStaleHolds runs one sweep
func (w *ExpiryWorker) processStaleHolds(ctx context.Context) {
	w.mu.Lock()
	w.lastScanTime = time.Now()
	w.mu.Unlock()

	expired, err := w.reservations.ExpireReservations(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error(fmt.Sprintf("Failed to expire stale holds: %v", err))
		return
	}

	if expired > 0 {
		w.mu.Lock()
		w.totalExpired += int64(expired)
		w.mu.Unlock()
		w.log.Info(fmt.Sprintf("Released %d stale payment holds", expired))
	}
}

// GetStats returns worker statistics
func (w *ExpiryWorker) GetStats() *ExpiryWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &ExpiryWorkerStats{
		IsRunning:    w.running,
		TotalExpired: w.totalExpired,
		LastScanTime: w.lastScanTime,
	}
}

// ExpiryWorkerStats contains worker statistics
type ExpiryWorkerStats struct {
	IsRunning    bool      `json:"is_running"`
	TotalExpired int64     `json:"total_expired"`
	LastScanTime time.Time `json:"last_scan_time"`
}
