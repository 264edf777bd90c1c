package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/middleware"
)

// CatalogueController handles batches and subjects
type CatalogueController struct {
	catalogue CatalogueService
}

// NewCatalogueController creates a new CatalogueController
func NewCatalogueController(catalogue CatalogueService) *CatalogueController {
	return &CatalogueController{catalogue: catalogue}
}

// ListBatches godoc
// @Summary List batches
// @Tags batches
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Batch}
// @Router /batches [get]
func (c *CatalogueController) ListBatches(ctx *gin.Context) {
	batches, err := c.catalogue.ListBatches(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(batches, ""))
}

// GetBatch godoc
// @Summary Get batch
// @Tags batches
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} dto.APIResponse{data=models.Batch}
// @Failure 404 {object} dto.ErrorResponse
// @Router /batches/{id} [get]
func (c *CatalogueController) GetBatch(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	batch, err := c.catalogue.GetBatch(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(batch, ""))
}

// CreateBatch godoc
// @Summary Create batch
// @Tags batches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BatchRequest true "Batch"
// @Success 201 {object} dto.APIResponse{data=models.Batch}
// @Failure 409 {object} dto.ErrorResponse "Batch already exists"
// @Router /batches [post]
func (c *CatalogueController) CreateBatch(ctx *gin.Context) {
	var req dto.BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}
	batch, err := c.catalogue.CreateBatch(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(batch, "Batch created"))
}

// UpdateBatch godoc
// @Summary Update batch
// @Tags batches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Batch ID"
// @Param request body dto.BatchRequest true "Batch"
// @Success 200 {object} dto.APIResponse{data=models.Batch}
// @Failure 404 {object} dto.ErrorResponse
// @Router /batches/{id} [put]
func (c *CatalogueController) UpdateBatch(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}
	batch, err := c.catalogue.UpdateBatch(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(batch, "Batch updated"))
}

// DeleteBatch godoc
// @Summary Delete batch
// @Tags batches
// @Produce json
// @Security BearerAuth
// @Param id path int true "Batch ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /batches/{id} [delete]
func (c *CatalogueController) DeleteBatch(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if err := c.catalogue.DeleteBatch(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Batch deleted"))
}

// ListSubjects godoc
// @Summary List subjects
// @Description Admins see every subject, teachers only the ones they teach
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param batchId query int false "Batch ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Subject}
// @Router /subjects [get]
func (c *CatalogueController) ListSubjects(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	batchID, err := optionalInt64Query(ctx, "batchId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	subjects, err := c.catalogue.ListSubjects(ctx.Request.Context(), actor, batchID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subjects, ""))
}

// GetSubject godoc
// @Summary Get subject
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 200 {object} dto.APIResponse{data=models.Subject}
// @Failure 404 {object} dto.ErrorResponse
// @Router /subjects/{id} [get]
func (c *CatalogueController) GetSubject(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	subject, err := c.catalogue.GetSubject(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subject, ""))
}

// CreateSubject godoc
// @Summary Create subject
// @Tags subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubjectRequest true "Subject"
// @Success 201 {object} dto.APIResponse{data=models.Subject}
// @Failure 404 {object} dto.ErrorResponse "Batch not found"
// @Failure 409 {object} dto.ErrorResponse "Code already exists"
// @Router /subjects [post]
func (c *CatalogueController) CreateSubject(ctx *gin.Context) {
	var req dto.SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}
	subject, err := c.catalogue.CreateSubject(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(subject, "Subject created"))
}

// UpdateSubject godoc
// @Summary Update subject
// @Tags subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Param request body dto.SubjectRequest true "Subject"
// @Success 200 {object} dto.APIResponse{data=models.Subject}
// @Failure 404 {object} dto.ErrorResponse
// @Router /subjects/{id} [put]
func (c *CatalogueController) UpdateSubject(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithValidationError(ctx, err)
		return
	}
	subject, err := c.catalogue.UpdateSubject(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subject, "Subject updated"))
}

// DeleteSubject godoc
// @Summary Delete subject
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /subjects/{id} [delete]
func (c *CatalogueController) DeleteSubject(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if err := c.catalogue.DeleteSubject(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Subject deleted"))
}
