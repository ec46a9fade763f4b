package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

type CommentHandler struct {
	service ports.CommentService
	paging  Paging
}

func NewCommentHandler(service ports.CommentService, paging Paging) *CommentHandler {
	return &CommentHandler{service: service, paging: paging}
}

type createCommentRequest struct {
	BlogID  string `param:"blogId" validate:"required,mongodb"`
	Content string `json:"content" validate:"required,max=1000"`
}

type commentIDParam struct {
	CommentID string `param:"commentId" validate:"required,mongodb"`
}

type commentResponse struct {
	Comment *domain.Comment `json:"comment"`
}

type blogCommentsResponse struct {
	Comments []*domain.Comment `json:"comments"`
}

type commentsResponse struct {
	pageMeta
	Comments []*domain.Comment `json:"comments"`
}

// Create handles POST /api/v1/comments/blog/:blogId.
//
// @Summary      Comment on a blog
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        blogId  path      string                true  "Blog id"
// @Param        body    body      createCommentRequest  true  "Comment"
// @Success      201     {object}  commentResponse
// @Failure      400     {object}  map[string]any
// @Failure      404     {object}  map[string]any
// @Router       /comments/blog/{blogId} [post]
func (h *CommentHandler) Create(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	var req createCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.service.Create(c.Request().Context(), viewer, req.BlogID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, commentResponse{Comment: comment})
}

// ListByBlog handles GET /api/v1/comments/blog/:blogId.
//
// @Summary      List the comments of a blog
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        blogId  path      string  true  "Blog id"
// @Success      200     {object}  blogCommentsResponse
// @Failure      404     {object}  map[string]any
// @Router       /comments/blog/{blogId} [get]
func (h *CommentHandler) ListByBlog(c echo.Context) error {
	var p blogIDParam
	if err := bind(c, &p); err != nil {
		return err
	}
	comments, err := h.service.ListByBlog(c.Request().Context(), p.BlogID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blogCommentsResponse{Comments: comments})
}

// List handles GET /api/v1/comments.
//
// @Summary      List all comments
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (1-50)"
// @Param        offset  query     int  false  "Items to skip"
// @Success      200     {object}  commentsResponse
// @Router       /comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	page, err := h.paging.page(c)
	if err != nil {
		return err
	}
	comments, total, err := h.service.List(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, commentsResponse{pageMeta: newPageMeta(page, total), Comments: comments})
}

// Delete handles DELETE /api/v1/comments/:commentId. Owners and admins only.
//
// @Summary      Delete a comment
// @Tags         comments
// @Security     BearerAuth
// @Param        commentId  path  string  true  "Comment id"
// @Success      204
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /comments/{commentId} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	var p commentIDParam
	if err := bind(c, &p); err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), viewer, p.CommentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
