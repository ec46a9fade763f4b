package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/api/metrics"
	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

const bannerField = "banner_image"

// BlogHandler handles HTTP requests for blog posts.
type BlogHandler struct {
	service ports.BlogService
	paging  Paging
}

func NewBlogHandler(service ports.BlogService, paging Paging) *BlogHandler {
	return &BlogHandler{service: service, paging: paging}
}

// --- Request / Response types ---

type createBlogRequest struct {
	Title   string `form:"title" json:"title" validate:"required,max=180"`
	Content string `form:"content" json:"content" validate:"required"`
	Status  string `form:"status" json:"status" validate:"omitempty,oneof=draft published"`
}

type updateBlogRequest struct {
	BlogID  string  `param:"blogId" validate:"required,mongodb"`
	Title   *string `json:"title" validate:"omitempty,max=180"`
	Content *string `json:"content" validate:"omitempty"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft published"`
}

type blogIDParam struct {
	BlogID string `param:"blogId" validate:"required,mongodb"`
}

type blogsByUserParam struct {
	UserID string `param:"userId" validate:"required,mongodb"`
}

type blogResponse struct {
	Blog *domain.Blog `json:"blog"`
}

type blogsResponse struct {
	pageMeta
	Blogs []*domain.Blog `json:"blogs"`
}

// Create handles POST /api/v1/blogs (multipart/form-data).
//
// @Summary      Create a blog
// @Tags         blogs
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title         formData  string  true   "Title (max 180)"
// @Param        content       formData  string  true   "HTML content"
// @Param        status        formData  string  false  "draft or published"
// @Param        banner_image  formData  file    true   "Banner image (png, jpeg, gif or webp, max 2MB)"
// @Success      201           {object}  blogResponse
// @Failure      400           {object}  map[string]any
// @Failure      403           {object}  map[string]any
// @Router       /blogs [post]
func (h *BlogHandler) Create(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	var req createBlogRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	banner, closeBanner, err := formUpload(c)
	if err != nil {
		return err
	}
	if banner == nil {
		return domain.NewValidationError("Invalid request", map[string]string{bannerField: "Banner image is required"})
	}
	defer closeBanner()

	blog, err := h.service.Create(c.Request().Context(), viewer, ports.CreateBlogInput{
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		Status:  domain.BlogStatus(req.Status),
		Banner:  *banner,
	})
	if err != nil {
		return err
	}

	metrics.BlogsCreatedTotal.WithLabelValues(string(blog.Status)).Inc()
	return c.JSON(http.StatusCreated, blogResponse{Blog: blog})
}

// List handles GET /api/v1/blogs. Users only see published blogs.
//
// @Summary      List blogs
// @Tags         blogs
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (1-50)"
// @Param        offset  query     int  false  "Items to skip"
// @Success      200     {object}  blogsResponse
// @Router       /blogs [get]
func (h *BlogHandler) List(c echo.Context) error {
	return h.list(c, domain.BlogFilter{})
}

// ListByUser handles GET /api/v1/blogs/user/:userId.
//
// @Summary      List the blogs of an author
// @Tags         blogs
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true   "Author id"
// @Param        limit   query     int     false  "Page size (1-50)"
// @Param        offset  query     int     false  "Items to skip"
// @Success      200     {object}  blogsResponse
// @Router       /blogs/user/{userId} [get]
func (h *BlogHandler) ListByUser(c echo.Context) error {
	var p blogsByUserParam
	if err := bind(c, &p); err != nil {
		return err
	}
	return h.list(c, domain.BlogFilter{AuthorID: p.UserID})
}

func (h *BlogHandler) list(c echo.Context, filter domain.BlogFilter) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	page, err := h.paging.page(c)
	if err != nil {
		return err
	}

	blogs, total, err := h.service.List(c.Request().Context(), viewer, filter, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blogsResponse{pageMeta: newPageMeta(page, total), Blogs: blogs})
}

// GetBySlug handles GET /api/v1/blogs/:slug and counts the view.
//
// @Summary      Get a blog by slug
// @Tags         blogs
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Blog slug"
// @Success      200   {object}  ports.BlogDetail
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /blogs/{slug} [get]
func (h *BlogHandler) GetBySlug(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return domain.NewValidationError("Invalid request", map[string]string{"slug": "slug is required"})
	}

	detail, err := h.service.GetBySlug(c.Request().Context(), viewer, slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// Update handles PUT /api/v1/blogs/:blogId. It accepts JSON, or
// multipart/form-data when the banner is replaced.
//
// @Summary      Update a blog
// @Tags         blogs
// @Accept       json,multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        blogId        path      string  true   "Blog id"
// @Param        title         formData  string  false  "Title (max 180)"
// @Param        content       formData  string  false  "HTML content"
// @Param        status        formData  string  false  "draft or published"
// @Param        banner_image  formData  file    false  "New banner image"
// @Success      200           {object}  blogResponse
// @Failure      400           {object}  map[string]any
// @Failure      403           {object}  map[string]any
// @Failure      404           {object}  map[string]any
// @Router       /blogs/{blogId} [put]
func (h *BlogHandler) Update(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}

	var req updateBlogRequest
	if isMultipart(c) {
		req.BlogID = c.Param("blogId")
		req.Title = formValue(c, "title")
		req.Content = formValue(c, "content")
		req.Status = formValue(c, "status")
		if err := c.Validate(&req); err != nil {
			return err
		}
	} else if err := bind(c, &req); err != nil {
		return err
	}

	banner, closeBanner, err := formUpload(c)
	if err != nil {
		return err
	}
	if banner != nil {
		defer closeBanner()
	}

	in := ports.UpdateBlogInput{Content: req.Content, Banner: banner}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		in.Title = &title
	}
	if req.Status != nil {
		status := domain.BlogStatus(*req.Status)
		in.Status = &status
	}

	blog, err := h.service.Update(c.Request().Context(), viewer, req.BlogID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blogResponse{Blog: blog})
}

// Delete handles DELETE /api/v1/blogs/:blogId.
//
// @Summary      Delete a blog
// @Tags         blogs
// @Security     BearerAuth
// @Param        blogId  path  string  true  "Blog id"
// @Success      204
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /blogs/{blogId} [delete]
func (h *BlogHandler) Delete(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	var p blogIDParam
	if err := bind(c, &p); err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), viewer, p.BlogID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formValue returns nil when the multipart form does not carry name.
func formValue(c echo.Context, name string) *string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// formUpload opens the banner file of a multipart request. It returns a nil
// upload when the request carries none.
func formUpload(c echo.Context) (*ports.Upload, func(), error) {
	if !isMultipart(c) {
		return nil, func() {}, nil
	}
	fh, err := c.FormFile(bannerField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, domain.NewValidationError("Invalid request", map[string]string{bannerField: "Invalid banner image upload"})
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*ports.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, domain.NewValidationError("Invalid request", map[string]string{bannerField: "Invalid banner image upload"})
	}
	return &ports.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
