package service

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/dto"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/metrics"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/pricing"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/redis"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

// InventoryService defines the interface for stall inventory and pricing
type InventoryService interface {
	// GetStall returns one priced, occupancy-annotated stall
	GetStall(ctx context.Context, eventStallID string) (*dto.StallResponse, error)

	// GetFloorMap returns every stall of an event with prices and occupancy.
	// A stall whose layout fails to parse is priced via the fallback path,
	// never dropped.
	GetFloorMap(ctx context.Context, eventID string) (*dto.StallListResponse, error)

	// BlockStall marks an event stall BLOCKED so no one can reserve it
	BlockStall(ctx context.Context, eventStallID string) error

	// UnblockStall returns a BLOCKED event stall to AVAILABLE
	UnblockStall(ctx context.Context, eventStallID string) error

	// SetTemplateAvailability toggles the operator block flag on a template
	SetTemplateAvailability(ctx context.Context, templateID string, available bool) error

	// BulkReprice applies a percentage adjustment to an event's stalls
	BulkReprice(ctx context.Context, eventID string, req *dto.BulkRepriceRequest) (*dto.BulkRepriceResponse, error)
}

// inventoryService implements InventoryService
type inventoryService struct {
	stallRepo repository.StallRepository
	engine    *pricing.Engine
	cache     *redis.Client
	cacheTTL  time.Duration
}

// InventoryServiceConfig contains configuration for the inventory service
type InventoryServiceConfig struct {
	// CacheTTL is how long a floor map lives in Redis. Short on purpose:
	// occupancy changes on every reservation.
	CacheTTL time.Duration
}

// NewInventoryService creates a new inventory service. The cache client may
// be nil, in which case every read hits Postgres.
func NewInventoryService(
	stallRepo repository.StallRepository,
	engine *pricing.Engine,
	cache *redis.Client,
	cfg *InventoryServiceConfig,
) InventoryService {
	cacheTTL := 5 * time.Second
	if cfg != nil && cfg.CacheTTL > 0 {
		cacheTTL = cfg.CacheTTL
	}
	return &inventoryService{
		stallRepo: stallRepo,
		engine:    engine,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

func floorMapCacheKey(eventID string) string {
	return "floormap:" + eventID
}

// GetStall returns one priced stall
func (s *inventoryService) GetStall(ctx context.Context, eventStallID string) (*dto.StallResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.get_stall")
	defer span.End()

	span.SetAttributes(attribute.String("event_stall_id", eventStallID))

	if eventStallID == "" {
		return nil, domain.ErrInvalidStallID
	}

	view, err := s.stallRepo.GetView(ctx, eventStallID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return s.toStallResponse(ctx, view), nil
}

// GetFloorMap returns the priced floor map for an event
func (s *inventoryService) GetFloorMap(ctx context.Context, eventID string) (*dto.StallListResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.get_floor_map")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}

	if cached := s.readCache(ctx, eventID); cached != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		span.SetStatus(codes.Ok, "")
		return cached, nil
	}

	views, err := s.stallRepo.ListViewsByEvent(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	stalls := make([]*dto.StallResponse, 0, len(views))
	for _, view := range views {
		stalls = append(stalls, s.toStallResponse(ctx, view))
	}

	resp := &dto.StallListResponse{
		EventID: eventID,
		Stalls:  stalls,
		Total:   len(stalls),
	}

	s.writeCache(ctx, eventID, resp)

	span.SetAttributes(attribute.Int("stall_count", len(stalls)))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// BlockStall marks an event stall BLOCKED
func (s *inventoryService) BlockStall(ctx context.Context, eventStallID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.block_stall")
	defer span.End()

	if eventStallID == "" {
		return domain.ErrInvalidStallID
	}

	if err := s.stallRepo.SetEventStallStatus(ctx, eventStallID, domain.EventStallBlocked); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UnblockStall returns a BLOCKED event stall to AVAILABLE
func (s *inventoryService) UnblockStall(ctx context.Context, eventStallID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.unblock_stall")
	defer span.End()

	if eventStallID == "" {
		return domain.ErrInvalidStallID
	}

	if err := s.stallRepo.SetEventStallStatus(ctx, eventStallID, domain.EventStallAvailable); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SetTemplateAvailability toggles the operator block flag on a template
func (s *inventoryService) SetTemplateAvailability(ctx context.Context, templateID string, available bool) error {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.set_template_availability")
	defer span.End()

	if templateID == "" {
		return domain.ErrInvalidStallID
	}

	if err := s.stallRepo.SetTemplateAvailability(ctx, templateID, available); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// BulkReprice applies a percentage adjustment to an event's stalls. Billed
// amounts on existing reservations stay frozen; only future batches see the
// new prices.
func (s *inventoryService) BulkReprice(ctx context.Context, eventID string, req *dto.BulkRepriceRequest) (*dto.BulkRepriceResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.bulk_reprice")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Float64("percentage", req.Percentage),
	)

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}

	version := generateVersion()
	repriced, err := s.stallRepo.BulkReprice(ctx, eventID, req.Percentage, version)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.invalidateCache(ctx, eventID)

	span.SetAttributes(attribute.Int64("repriced", repriced))
	span.SetStatus(codes.Ok, "")
	return &dto.BulkRepriceResponse{
		EventID:        eventID,
		Repriced:       repriced,
		PricingVersion: version,
	}, nil
}

// toStallResponse prices one stall view and flattens it for the API
func (s *inventoryService) toStallResponse(ctx context.Context, view *repository.StallView) *dto.StallResponse {
	quote := s.engine.Price(view.Stall, view.Template, view.Hall)
	if quote.Breakdown.Fallback {
		metrics.RecordPricingFallback(ctx, view.Stall.EventID)
		logger.Get().Warn("stall priced via fallback",
			zap.String("event_stall_id", view.Stall.ID),
			zap.Error(quote.FallbackReason),
		)
	}

	// A stall reads as taken when any of: a vendor holds a non-terminal
	// reservation on it, an operator blocked the stall, or the operator
	// pulled the whole template from sale.
	blocked := view.Stall.Status == domain.EventStallBlocked || !view.Template.Available
	reserved := view.ActiveReservation || blocked ||
		view.Stall.Status == domain.EventStallReserved

	occupiedBy := view.ReservedBy
	if occupiedBy == "" && blocked {
		occupiedBy = "BLOCKED"
	}

	resp := &dto.StallResponse{
		ID:              view.Stall.ID,
		EventID:         view.Stall.EventID,
		TemplateID:      view.Template.ID,
		Name:            view.Template.Name,
		Size:            string(view.Template.Size),
		Category:        view.Template.Category,
		HallID:          view.Hall.ID,
		HallName:        view.Hall.Name,
		Status:          view.Stall.Status.String(),
		FinalPriceCents: quote.FinalPriceCents,
		ProximityScore:  quote.Score,
		ScaledScore:     quote.ScaledScore,
		PriceFallback:   quote.Breakdown.Fallback,
		Reserved:        reserved,
		OccupiedBy:      occupiedBy,
	}

	geomJSON := view.Stall.GeometryJSON
	if geomJSON == "" {
		geomJSON = view.Template.GeometryJSON
	}
	if geom, err := domain.ParseGeometry(geomJSON); err == nil {
		resp.GeometryX = geom.X
		resp.GeometryY = geom.Y
		resp.GeometryW = geom.W
		resp.GeometryH = geom.H
	}

	return resp
}

func (s *inventoryService) readCache(ctx context.Context, eventID string) *dto.StallListResponse {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, floorMapCacheKey(eventID)).Result()
	if err != nil {
		if err != goredis.Nil {
			logger.Get().Debug("floor map cache read failed", zap.Error(err))
		}
		return nil
	}

	var resp dto.StallListResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *inventoryService) writeCache(ctx context.Context, eventID string, resp *dto.StallListResponse) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, floorMapCacheKey(eventID), raw, s.cacheTTL).Err(); err != nil {
		logger.Get().Debug("floor map cache write failed", zap.Error(err))
	}
}

func (s *inventoryService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, floorMapCacheKey(eventID)).Err(); err != nil {
		logger.Get().Debug("floor map cache invalidation failed", zap.Error(err))
	}
}
