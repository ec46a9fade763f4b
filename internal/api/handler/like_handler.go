package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/core/ports"
)

type LikeHandler struct {
	service ports.LikeService
}

func NewLikeHandler(service ports.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

type likesResponse struct {
	LikesCount int64 `json:"likesCount"`
}

// Like handles POST /api/v1/likes/blog/:blogId.
//
// @Summary      Like a blog
// @Tags         likes
// @Produce      json
// @Security     BearerAuth
// @Param        blogId  path      string  true  "Blog id"
// @Success      200     {object}  likesResponse
// @Failure      404     {object}  map[string]any
// @Failure      409     {object}  map[string]any
// @Router       /likes/blog/{blogId} [post]
func (h *LikeHandler) Like(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	var p blogIDParam
	if err := bind(c, &p); err != nil {
		return err
	}

	count, err := h.service.Like(c.Request().Context(), p.BlogID, viewer.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, likesResponse{LikesCount: count})
}

// Unlike handles DELETE /api/v1/likes/blog/:blogId.
//
// @Summary      Remove a like
// @Tags         likes
// @Security     BearerAuth
// @Param        blogId  path  string  true  "Blog id"
// @Success      204
// @Failure      404  {object}  map[string]any
// @Router       /likes/blog/{blogId} [delete]
func (h *LikeHandler) Unlike(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	var p blogIDParam
	if err := bind(c, &p); err != nil {
		return err
	}
	if err := h.service.Unlike(c.Request().Context(), p.BlogID, viewer.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
