package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/api/middleware"
	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

const maxPageLimit = 50

// Paging holds the defaults applied when a list request omits limit or offset.
type Paging struct {
	Limit  int
	Offset int
}

// ctxViewer returns the caller set by the Authenticate and Authorize
// middleware. Both values are present on every authorized route.
func ctxViewer(c echo.Context) (ports.Viewer, error) {
	v := ports.Viewer{UserID: middleware.UserID(c), Role: middleware.Role(c)}
	if v.UserID == "" || v.Role == "" {
		return ports.Viewer{}, domain.ErrMissingToken
	}
	return v, nil
}

// page reads ?limit and ?offset, falling back to the configured defaults.
func (p Paging) page(c echo.Context) (domain.Page, error) {
	page := domain.Page{Limit: p.Limit, Offset: p.Offset}
	if page.Limit <= 0 {
		page.Limit = 20
	}

	err := echo.QueryParamsBinder(c).
		Int("limit", &page.Limit).
		Int("offset", &page.Offset).
		BindError()
	if err != nil {
		return domain.Page{}, domain.NewValidationError("Invalid request", map[string]string{"pagination": "limit and offset must be integers"})
	}

	fields := map[string]string{}
	if page.Limit < 1 || page.Limit > maxPageLimit {
		fields["limit"] = "Limit must be between 1 to 50"
	}
	if page.Offset < 0 {
		fields["offset"] = "Offset must be a positive integer"
	}
	if len(fields) > 0 {
		return domain.Page{}, domain.NewValidationError("Invalid request", fields)
	}
	return page, nil
}

// pageMeta is embedded in every paginated listing.
type pageMeta struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

func newPageMeta(page domain.Page, total int64) pageMeta {
	return pageMeta{Limit: page.Limit, Offset: page.Offset, Total: total}
}
