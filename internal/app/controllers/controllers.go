// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/services"
	"github.com/yigit/attendance/internal/middleware"
	"github.com/yigit/attendance/internal/pkg/apperrors"
)

// The controllers depend on these rather than on the concrete services so
// handlers can be exercised with stubs.

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID int64) (*dto.UserResponse, error)
}

type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, id int64) (*dto.UserResponse, error)
	List(ctx context.Context, params services.UserListParams, offset, limit uint64) ([]*models.User, int64, error)
	Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor services.Actor, id int64) error
	AssignSubjects(ctx context.Context, userID int64, subjectIDs []int64) (*dto.UserResponse, error)
	ListTeachers(ctx context.Context) ([]*models.Teacher, error)
	ListStudents(ctx context.Context, batchID int64) ([]*models.Student, error)
}

type CatalogueService interface {
	CreateBatch(ctx context.Context, req *dto.BatchRequest) (*models.Batch, error)
	UpdateBatch(ctx context.Context, id int64, req *dto.BatchRequest) (*models.Batch, error)
	GetBatch(ctx context.Context, id int64) (*models.Batch, error)
	ListBatches(ctx context.Context) ([]*models.Batch, error)
	DeleteBatch(ctx context.Context, id int64) error
	CreateSubject(ctx context.Context, req *dto.SubjectRequest) (*models.Subject, error)
	UpdateSubject(ctx context.Context, id int64, req *dto.SubjectRequest) (*models.Subject, error)
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id int64) error
	ListSubjects(ctx context.Context, actor services.Actor, batchID *int64) ([]*models.Subject, error)
}

type SessionService interface {
	Start(ctx context.Context, teacherUserID int64, req *dto.StartSessionRequest) (*models.Session, error)
	End(ctx context.Context, actor services.Actor, sessionUUID uuid.UUID) (*models.Session, error)
	CurrentToken(ctx context.Context, actor services.Actor, sessionUUID uuid.UUID) (*dto.SessionTokenResponse, error)
	Get(ctx context.Context, actor services.Actor, sessionUUID uuid.UUID) (*models.Session, error)
	List(ctx context.Context, actor services.Actor, params services.SessionListParams, offset, limit uint64) ([]*models.Session, int64, error)
	Attendance(ctx context.Context, actor services.Actor, sessionUUID uuid.UUID) (*dto.SessionAttendanceResponse, error)
}

type AttendanceService interface {
	Redeem(ctx context.Context, token string, studentUserID int64) (models.MarkResult, error)
	MarkManually(ctx context.Context, actor services.Actor, sessionUUID uuid.UUID, studentID int64) (models.MarkResult, error)
	Unmark(ctx context.Context, actor services.Actor, sessionUUID uuid.UUID, studentID int64) (models.MarkResult, error)
	DeleteRecord(ctx context.Context, actor services.Actor, recordID int64) error
}

type TimetableService interface {
	Create(ctx context.Context, req *dto.CreateTimetableSlotRequest) (*models.TimetableSlot, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, actor services.Actor, batchID *int64, day *int) ([]*models.TimetableSlot, error)
}

type SyllabusService interface {
	Upload(ctx context.Context, actor services.Actor, req *dto.UploadSyllabusRequest, file *multipart.FileHeader) (*models.Syllabus, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, actor services.Actor, batchID *int64) ([]*models.Syllabus, error)
}

type ReportService interface {
	AdminDashboard(ctx context.Context) (*dto.AdminDashboard, error)
	TeacherDashboard(ctx context.Context, teacherUserID int64) (*dto.TeacherDashboard, error)
	StudentDashboard(ctx context.Context, studentUserID int64) (*dto.StudentDashboard, error)
	Report(ctx context.Context, actor services.Actor, f dto.ReportFilter) ([]*models.RecordDetails, dto.PaginationInfo, error)
	ExportCSV(ctx context.Context, actor services.Actor, f dto.ReportFilter, w io.Writer) (int, error)
	StudentHistory(ctx context.Context, studentUserID int64, page, size int) ([]*models.RecordDetails, dto.PaginationInfo, error)
	AuditLog(ctx context.Context, page, size int) ([]*models.AuditLog, dto.PaginationInfo, error)
}

// parseIDParam parses a positive int64 path parameter
func parseIDParam(ctx *gin.Context, paramName string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("invalid " + paramName)
	}
	return id, nil
}

// parseSessionParam parses the session UUID path parameter
func parseSessionParam(ctx *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("sessionId"))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError("invalid session id")
	}
	return id, nil
}

// optionalInt64Query reads an optional positive int64 query parameter
func optionalInt64Query(ctx *gin.Context, name string) (*int64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, apperrors.NewBadRequestError("invalid " + name)
	}
	return &v, nil
}

func optionalIntQuery(ctx *gin.Context, name string) (*int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewBadRequestError("invalid " + name)
	}
	return &v, nil
}

func optionalBoolQuery(ctx *gin.Context, name string) (*bool, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewBadRequestError("invalid " + name)
	}
	return &v, nil
}

func optionalDateQuery(ctx *gin.Context, name string) (*time.Time, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, apperrors.NewBadRequestError(name + " must be YYYY-MM-DD")
	}
	return &v, nil
}

// currentActor reads the caller set by the JWT middleware
func currentActor(ctx *gin.Context) (services.Actor, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
			WithDetails("User ID not found in request context")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return services.Actor{}, false
	}
	role, _ := middleware.GetRoleType(ctx)
	return services.Actor{UserID: userID, Role: role}, true
}
