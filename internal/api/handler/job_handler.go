package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// JobHandler exposes the dead letter jobs of the background queue.
type JobHandler struct {
	service ports.JobAdmin
	paging  Paging
}

func NewJobHandler(service ports.JobAdmin, paging Paging) *JobHandler {
	return &JobHandler{service: service, paging: paging}
}

type jobIDParam struct {
	JobID string `param:"jobId" validate:"required,mongodb"`
}

type jobResponse struct {
	Job *domain.Job `json:"job"`
}

type jobsResponse struct {
	pageMeta
	Jobs []*domain.Job `json:"jobs"`
}

// ListFailed handles GET /api/v1/jobs/failed.
//
// @Summary      List failed jobs
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (1-50)"
// @Param        offset  query     int  false  "Items to skip"
// @Success      200     {object}  jobsResponse
// @Router       /jobs/failed [get]
func (h *JobHandler) ListFailed(c echo.Context) error {
	page, err := h.paging.page(c)
	if err != nil {
		return err
	}
	jobs, total, err := h.service.ListFailed(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, jobsResponse{pageMeta: newPageMeta(page, total), Jobs: jobs})
}

// Retry handles POST /api/v1/jobs/:jobId/retry.
//
// @Summary      Retry a failed job
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        jobId  path      string  true  "Job id"
// @Success      200    {object}  jobResponse
// @Failure      404    {object}  map[string]any
// @Failure      409    {object}  map[string]any
// @Router       /jobs/{jobId}/retry [post]
func (h *JobHandler) Retry(c echo.Context) error {
	var p jobIDParam
	if err := bind(c, &p); err != nil {
		return err
	}
	job, err := h.service.Retry(c.Request().Context(), p.JobID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, jobResponse{Job: job})
}
