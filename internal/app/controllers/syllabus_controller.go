package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/middleware"
	"github.com/yigit/attendance/internal/pkg/apperrors"
)

// SyllabusController handles syllabus documents
type SyllabusController struct {
	syllabi SyllabusService
}

// NewSyllabusController creates a new SyllabusController
func NewSyllabusController(syllabi SyllabusService) *SyllabusController {
	return &SyllabusController{syllabi: syllabi}
}

// ListSyllabi godoc
// @Summary List syllabi
// @Tags syllabi
// @Produce json
// @Security BearerAuth
// @Param batchId query int false "Batch ID (admins only)"
// @Success 200 {object} dto.APIResponse{data=[]models.Syllabus}
// @Router /syllabi [get]
func (c *SyllabusController) ListSyllabi(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	batchID, err := optionalInt64Query(ctx, "batchId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	list, err := c.syllabi.List(ctx.Request.Context(), actor, batchID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list, ""))
}

// UploadSyllabus godoc
// @Summary Upload syllabus
// @Description Replaces the existing syllabus of the same subject and batch
// @Tags syllabi
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param subjectId formData int true "Subject ID"
// @Param batchId formData int true "Batch ID"
// @Param title formData string false "Title (defaults to the subject name)"
// @Param file formData file true "pdf, doc, docx, ppt, pptx or txt up to 20MB"
// @Success 201 {object} dto.APIResponse{data=models.Syllabus}
// @Failure 400 {object} dto.ErrorResponse
// @Router /syllabi [post]
func (c *SyllabusController) UploadSyllabus(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.UploadSyllabusRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("file is required"))
		return
	}

	syllabus, err := c.syllabi.Upload(ctx.Request.Context(), actor, &req, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(syllabus, "Syllabus uploaded"))
}

// DeleteSyllabus godoc
// @Summary Delete syllabus
// @Tags syllabi
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /syllabi/{id} [delete]
func (c *SyllabusController) DeleteSyllabus(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if err := c.syllabi.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Syllabus deleted"))
}
