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

// CheckInHandler handles gate admission HTTP requests
type CheckInHandler struct {
	checkInService service.CheckInService
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkInService service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInService: checkInService}
}

// CheckIn handles POST /gate/check-in
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkin.check_in")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	employeeID := c.GetString("employee_id")
	if employeeID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	var req dto.CheckInRequest
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

	span.SetAttributes(attribute.String("employee_id", employeeID))

	result, err := h.checkInService.CheckIn(ctx, employeeID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// Lookup handles GET /gate/lookup/:key
func (h *CheckInHandler) Lookup(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkin.lookup")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	key := c.Param("key")

	result, err := h.checkInService.Lookup(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}
