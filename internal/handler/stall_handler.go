package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/dto"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

// StallHandler handles stall inventory HTTP requests
type StallHandler struct {
	inventoryService service.InventoryService
}

// NewStallHandler creates a new stall handler
func NewStallHandler(inventoryService service.InventoryService) *StallHandler {
	return &StallHandler{inventoryService: inventoryService}
}

// GetFloorMap handles GET /events/:eventId/stalls
func (h *StallHandler) GetFloorMap(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.stall.floor_map")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("eventId")
	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.inventoryService.GetFloorMap(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// GetStall handles GET /stalls/:id
func (h *StallHandler) GetStall(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.stall.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	stallID := c.Param("id")
	span.SetAttributes(attribute.String("event_stall_id", stallID))

	result, err := h.inventoryService.GetStall(ctx, stallID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// BlockStall handles POST /admin/stalls/:id/block
func (h *StallHandler) BlockStall(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.stall.block")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	stallID := c.Param("id")
	span.SetAttributes(attribute.String("event_stall_id", stallID))

	if err := h.inventoryService.BlockStall(ctx, stallID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "stall blocked"})
}

// UnblockStall handles POST /admin/stalls/:id/unblock
func (h *StallHandler) UnblockStall(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.stall.unblock")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	stallID := c.Param("id")
	span.SetAttributes(attribute.String("event_stall_id", stallID))

	if err := h.inventoryService.UnblockStall(ctx, stallID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "stall unblocked"})
}

// SetTemplateAvailability handles PUT /admin/stall-templates/:id/availability
func (h *StallHandler) SetTemplateAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.stall.template_availability")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	templateID := c.Param("id")

	var req dto.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("template_id", templateID),
		attribute.Bool("available", req.Available),
	)

	if err := h.inventoryService.SetTemplateAvailability(ctx, templateID, req.Available); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// BulkReprice handles POST /admin/events/:eventId/reprice
func (h *StallHandler) BulkReprice(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.stall.bulk_reprice")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("eventId")

	var req dto.BulkRepriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Float64("percentage", req.Percentage),
	)

	result, err := h.inventoryService.BulkReprice(ctx, eventID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}
