package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/middleware"
	"github.com/yigit/attendance/internal/pkg/helpers"
)

// AttendanceController handles QR redemption and attendance records
type AttendanceController struct {
	attendance AttendanceService
	reports    ReportService
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendance AttendanceService, reports ReportService) *AttendanceController {
	return &AttendanceController{
		attendance: attendance,
		reports:    reports,
	}
}

// Redeem marks the calling student present with a scanned QR token.
// Every verification failure is answered with 200 and an error status.
// @Summary Redeem QR token
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RedeemRequest true "Scanned token"
// @Success 200 {object} dto.MarkResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Caller has no student profile"
// @Failure 429 {object} dto.ErrorResponse "Too many attempts"
// @Router /attendance/redeem [post]
func (c *AttendanceController) Redeem(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.RedeemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}

	result, err := c.attendance.Redeem(ctx.Request.Context(), req.Token, actor.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMarkResponse(result))
}

// History pages through the calling student's records
// @Summary Own attendance history
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param size query int false "Page size (default 20)"
// @Success 200 {object} dto.APIResponse{data=[]models.RecordDetails}
// @Router /attendance/history [get]
func (c *AttendanceController) History(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	records, pagination, err := c.reports.StudentHistory(ctx.Request.Context(), actor.UserID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPagedResponse(records, pagination))
}

// DeleteRecord removes any attendance record
// @Summary Delete attendance record
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attendance/records/{id} [delete]
func (c *AttendanceController) DeleteRecord(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.attendance.DeleteRecord(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Attendance record deleted"))
}
