package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/services"
	"github.com/yigit/attendance/internal/middleware"
	"github.com/yigit/attendance/internal/pkg/helpers"
)

// SessionController handles attendance sessions and their rosters
type SessionController struct {
	sessions   SessionService
	attendance AttendanceService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessions SessionService, attendance AttendanceService) *SessionController {
	return &SessionController{
		sessions:   sessions,
		attendance: attendance,
	}
}

// StartSession opens a session for one of the teacher's subjects
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartSessionRequest true "Subject and batch"
// @Success 201 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Subject does not belong to batch"
// @Failure 403 {object} dto.ErrorResponse "Subject not taught by caller"
// @Router /sessions [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}

	session, err := c.sessions.Start(ctx.Request.Context(), actor.UserID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(session, "Session started"))
}

// EndSession closes a session
// @Summary End session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session UUID"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Session already ended"
// @Router /sessions/{sessionId}/end [post]
func (c *SessionController) EndSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	session, err := c.sessions.End(ctx.Request.Context(), actor, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session, "Session ended"))
}

// CurrentToken returns the token the QR display should show now
// @Summary Current QR token
// @Description Polled by the QR display every refreshInterval seconds
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session UUID"
// @Success 200 {object} dto.APIResponse{data=dto.SessionTokenResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Session is not active"
// @Router /sessions/{sessionId}/token [get]
func (c *SessionController) CurrentToken(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	token, err := c.sessions.CurrentToken(ctx.Request.Context(), actor, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(token, ""))
}

// GetSession returns one session
// @Summary Get session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session UUID"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 404 {object} dto.ErrorResponse
// @Router /sessions/{sessionId} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	session, err := c.sessions.Get(ctx.Request.Context(), actor, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session, ""))
}

// ListSessions pages through sessions; teachers only see their own
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active or only ended sessions"
// @Param page query int false "Page (default 1)"
// @Param size query int false "Page size (default 20)"
// @Success 200 {object} dto.APIResponse{data=[]models.Session}
// @Router /sessions [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	active, err := optionalBoolQuery(ctx, "active")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sessions, total, err := c.sessions.List(ctx.Request.Context(), actor, services.SessionListParams{Active: active}, offset, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPagedResponse(sessions, helpers.NewPaginationInfo(total, page, size)))
}

// SessionAttendance returns who is present and who is not
// @Summary Session roster
// @Description Polled by the teacher while the session is running
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session UUID"
// @Success 200 {object} dto.APIResponse{data=dto.SessionAttendanceResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /sessions/{sessionId}/attendance [get]
func (c *SessionController) SessionAttendance(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	roster, err := c.sessions.Attendance(ctx.Request.Context(), actor, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(roster, ""))
}

// MarkStudent marks a student present without a token
// @Summary Manual mark
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session UUID"
// @Param request body dto.ManualMarkRequest true "Student"
// @Success 200 {object} dto.MarkResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /sessions/{sessionId}/attendance [post]
func (c *SessionController) MarkStudent(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.ManualMarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}

	result, err := c.attendance.MarkManually(ctx.Request.Context(), actor, sessionID, req.StudentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMarkResponse(result))
}

// UnmarkStudent removes a student's record from a session
// @Summary Unmark
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session UUID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.MarkResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /sessions/{sessionId}/attendance/{studentId} [delete]
func (c *SessionController) UnmarkStudent(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	studentID, err := parseIDParam(ctx, "studentId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := c.attendance.Unmark(ctx.Request.Context(), actor, sessionID, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.NewMarkResponse(result)
	if result.Outcome == models.OutcomeSuccess {
		resp.Message = "Attendance removed"
	}
	ctx.JSON(http.StatusOK, resp)
}
