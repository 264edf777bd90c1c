package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/logger"
)

type errorMapping struct {
	err    error
	status int
	code   dto.ErrorCode
}

// Checked in order; the first sentinel found in the chain wins.
var errorMappings = []errorMapping{
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrTeacherNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrBatchNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrSubjectNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrTimetableSlotNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrSyllabusNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrSessionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrRecordNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},

	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrRollNumberExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrBatchAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrSubjectAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrTimetableSlotTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrAlreadyMarked, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrSessionInactive, http.StatusConflict, dto.ErrorCodeSessionInactive},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled},

	{apperrors.ErrStudentProfileRequired, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrSubjectNotTaught, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},

	{apperrors.ErrSubjectBatchMismatch, http.StatusBadRequest, dto.ErrorCodeBadRequest},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest},

	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests},
}

// HandleAPIError writes the error envelope for err. Unknown errors become a
// 500 without leaking their text.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := ErrorDetailFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled API error")
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

// ErrorDetailFor maps err to an HTTP status and error detail
func ErrorDetailFor(err error) (int, *dto.ErrorDetail) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}

		message := m.err.Error()
		detail := dto.NewErrorDetail(m.code, "")
		var custom *apperrors.CustomError
		if errors.As(err, &custom) {
			message = custom.Error()
			if len(custom.Details) > 0 {
				detail.WithDetails(custom.Details)
			}
		}
		detail.Message = message
		return m.status, detail
	}

	return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
}
