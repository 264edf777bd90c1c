package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/middleware"
)

// TimetableController handles weekly class slots
type TimetableController struct {
	timetable TimetableService
}

// NewTimetableController creates a new TimetableController
func NewTimetableController(timetable TimetableService) *TimetableController {
	return &TimetableController{timetable: timetable}
}

// ListSlots godoc
// @Summary List timetable slots
// @Description Admins see every batch, teachers their own slots, students their batch
// @Tags timetable
// @Produce json
// @Security BearerAuth
// @Param batchId query int false "Batch ID (admins only)"
// @Param day query int false "0 (Monday) to 5 (Saturday)"
// @Success 200 {object} dto.APIResponse{data=[]models.TimetableSlot}
// @Failure 400 {object} dto.ErrorResponse
// @Router /timetable [get]
func (c *TimetableController) ListSlots(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	batchID, err := optionalInt64Query(ctx, "batchId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	day, err := optionalIntQuery(ctx, "day")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	slots, err := c.timetable.List(ctx.Request.Context(), actor, batchID, day)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(slots, ""))
}

// CreateSlot godoc
// @Summary Create timetable slot
// @Tags timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTimetableSlotRequest true "Slot"
// @Success 201 {object} dto.APIResponse{data=models.TimetableSlot}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Batch already has a slot at this time"
// @Router /timetable [post]
func (c *TimetableController) CreateSlot(ctx *gin.Context) {
	var req dto.CreateTimetableSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}
	slot, err := c.timetable.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(slot, "Slot created"))
}

// DeleteSlot godoc
// @Summary Delete timetable slot
// @Tags timetable
// @Produce json
// @Security BearerAuth
// @Param id path int true "Slot ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /timetable/{id} [delete]
func (c *TimetableController) DeleteSlot(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if err := c.timetable.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Slot deleted"))
}
