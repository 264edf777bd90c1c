package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/services"
	"github.com/yigit/attendance/internal/middleware"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/helpers"
)

// UserController handles admin user management
type UserController struct {
	userService UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService UserService, logger zerolog.Logger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

// CreateUser adds a teacher or student
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "User"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Email or roll number already exists"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}

	user, err := c.userService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User created")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(user, "User created"))
}

// ListUsers pages through users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "ADMIN, TEACHER or STUDENT"
// @Param search query string false "Matches name or email"
// @Param page query int false "Page (default 1)"
// @Param size query int false "Page size (default 20)"
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	params := services.UserListParams{Search: strings.TrimSpace(ctx.Query("search"))}
	if raw := ctx.Query("role"); raw != "" {
		role := models.RoleType(strings.ToUpper(raw))
		if !role.Valid() {
			middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("invalid role"))
			return
		}
		params.Role = &role
	}

	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	users, total, err := c.userService.List(ctx.Request.Context(), params, offset, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPagedResponse(users, helpers.NewPaginationInfo(total, page, size)))
}

// GetUser returns a user with its role profile
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	user, err := c.userService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(user, ""))
}

// UpdateUser edits a user
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "User"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}

	user, err := c.userService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(user, "User updated"))
}

// DeleteUser removes a user
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Cannot delete yourself"
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.userService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", id).Int64("by", actor.UserID).Msg("User deleted")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "User deleted"))
}

// AssignSubjects replaces the subjects a teacher teaches
// @Summary Assign subjects to a teacher
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher user ID"
// @Param request body dto.AssignSubjectsRequest true "Subjects"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id}/subjects [put]
func (c *UserController) AssignSubjects(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.AssignSubjectsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}

	user, err := c.userService.AssignSubjects(ctx.Request.Context(), id, req.SubjectIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(user, "Subjects assigned"))
}

// ListTeachers returns every teacher with its subjects
// @Summary List teachers
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Teacher}
// @Router /teachers [get]
func (c *UserController) ListTeachers(ctx *gin.Context) {
	teachers, err := c.userService.ListTeachers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(teachers, ""))
}

// ListStudents returns the students of a batch
// @Summary List students of a batch
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param batchId query int true "Batch ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Student}
// @Failure 400 {object} dto.ErrorResponse
// @Router /students [get]
func (c *UserController) ListStudents(ctx *gin.Context) {
	batchID, err := optionalInt64Query(ctx, "batchId")
	if err == nil && batchID == nil {
		err = apperrors.NewBadRequestError("batchId is required")
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	students, err := c.userService.ListStudents(ctx.Request.Context(), *batchID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(students, ""))
}
