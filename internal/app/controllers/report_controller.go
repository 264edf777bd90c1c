package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/middleware"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/helpers"
)

// ReportController handles dashboards, reports and the audit log
type ReportController struct {
	reports ReportService
}

// NewReportController creates a new ReportController
func NewReportController(reports ReportService) *ReportController {
	return &ReportController{reports: reports}
}

// Dashboard returns the dashboard of the caller's role
// @Summary Dashboard
// @Description Admin, teacher or student dashboard depending on the caller
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Router /dashboard [get]
func (c *ReportController) Dashboard(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var (
		data interface{}
		err  error
	)
	switch actor.Role {
	case models.RoleAdmin:
		data, err = c.reports.AdminDashboard(ctx.Request.Context())
	case models.RoleTeacher:
		data, err = c.reports.TeacherDashboard(ctx.Request.Context(), actor.UserID)
	case models.RoleStudent:
		data, err = c.reports.StudentDashboard(ctx.Request.Context(), actor.UserID)
	default:
		err = apperrors.ErrPermissionDenied
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(data, ""))
}

func parseReportFilter(ctx *gin.Context) (dto.ReportFilter, error) {
	var f dto.ReportFilter
	var err error
	if f.BatchID, err = optionalInt64Query(ctx, "batchId"); err != nil {
		return f, err
	}
	if f.SubjectID, err = optionalInt64Query(ctx, "subjectId"); err != nil {
		return f, err
	}
	if f.Date, err = optionalDateQuery(ctx, "date"); err != nil {
		return f, err
	}
	f.Page, f.Size = helpers.ParsePaginationParams(ctx)
	return f, nil
}

// Report pages through attendance records
// @Summary Attendance report
// @Description Teachers only see their own sessions
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param batchId query int false "Batch ID"
// @Param subjectId query int false "Subject ID"
// @Param date query string false "Session day, YYYY-MM-DD"
// @Param page query int false "Page (default 1)"
// @Param size query int false "Page size (default 20)"
// @Success 200 {object} dto.APIResponse{data=[]models.RecordDetails}
// @Failure 400 {object} dto.ErrorResponse
// @Router /reports/attendance [get]
func (c *ReportController) Report(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	filter, err := parseReportFilter(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	records, pagination, err := c.reports.Report(ctx.Request.Context(), actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPagedResponse(records, pagination))
}

// Export downloads the filtered report as CSV
// @Summary Export attendance report
// @Tags reports
// @Produce text/csv
// @Security BearerAuth
// @Param batchId query int false "Batch ID"
// @Param subjectId query int false "Subject ID"
// @Param date query string false "Session day, YYYY-MM-DD"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponse
// @Router /reports/attendance/export [get]
func (c *ReportController) Export(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	filter, err := parseReportFilter(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if _, err := c.reports.ExportCSV(ctx.Request.Context(), actor, filter, &buf); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	filename := fmt.Sprintf("attendance_report_%s.csv", time.Now().Format("20060102"))
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// AuditLog pages through audit entries, newest first
// @Summary Audit log
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param size query int false "Page size (default 20)"
// @Success 200 {object} dto.APIResponse{data=[]models.AuditLog}
// @Router /audit-logs [get]
func (c *ReportController) AuditLog(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	logs, pagination, err := c.reports.AuditLog(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPagedResponse(logs, pagination))
}
