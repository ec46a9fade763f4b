package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
	paging  Paging
}

func NewUserHandler(service ports.UserService, paging Paging) *UserHandler {
	return &UserHandler{service: service, paging: paging}
}

type socialLinksRequest struct {
	Website   *string `json:"website" validate:"omitempty,max=100,url"`
	LinkedIn  *string `json:"linkedIn" validate:"omitempty,max=100,url"`
	Facebook  *string `json:"facebook" validate:"omitempty,max=100,url"`
	Instagram *string `json:"instagram" validate:"omitempty,max=100,url"`
	YouTube   *string `json:"youtube" validate:"omitempty,max=100,url"`
	X         *string `json:"x" validate:"omitempty,max=100,url"`
}

type updateUserRequest struct {
	Username    *string             `json:"username" validate:"omitempty,max=20"`
	Email       *string             `json:"email" validate:"omitempty,max=50,email"`
	Password    *string             `json:"password" validate:"omitempty,min=8"`
	FirstName   *string             `json:"firstName" validate:"omitempty,max=20"`
	LastName    *string             `json:"lastName" validate:"omitempty,max=20"`
	SocialLinks *socialLinksRequest `json:"socialLinks"`
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	in := ports.UpdateUserInput{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
	if r.SocialLinks != nil {
		in.SocialLinks = &domain.SocialLinksPatch{
			Website:   r.SocialLinks.Website,
			LinkedIn:  r.SocialLinks.LinkedIn,
			Facebook:  r.SocialLinks.Facebook,
			Instagram: r.SocialLinks.Instagram,
			YouTube:   r.SocialLinks.YouTube,
			X:         r.SocialLinks.X,
		}
	}
	return in
}

type userIDParam struct {
	UserID string `param:"userId" validate:"required,mongodb"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type usersResponse struct {
	pageMeta
	Users []*domain.User `json:"users"`
}

// GetCurrent returns the authenticated user.
//
// @Summary      Get the current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]any
// @Router       /users/current [get]
func (h *UserHandler) GetCurrent(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), viewer.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdateCurrent applies a partial profile update. The role cannot be changed here.
//
// @Summary      Update the current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /users/current [put]
func (h *UserHandler) UpdateCurrent(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), viewer.UserID, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// DeleteCurrent removes the authenticated user and everything they own.
//
// @Summary      Delete the current user
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Router       /users/current [delete]
func (h *UserHandler) DeleteCurrent(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), viewer.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns a page of users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (1-50)"
// @Param        offset  query     int  false  "Items to skip"
// @Success      200     {object}  usersResponse
// @Failure      403     {object}  map[string]any
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := h.paging.page(c)
	if err != nil {
		return err
	}
	users, total, err := h.service.List(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{pageMeta: newPageMeta(page, total), Users: users})
}

// Get returns one user by id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "User id"
// @Success      200     {object}  userResponse
// @Failure      404     {object}  map[string]any
// @Router       /users/{userId} [get]
func (h *UserHandler) Get(c echo.Context) error {
	var p userIDParam
	if err := bind(c, &p); err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Delete removes a user and everything they own.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        userId  path  string  true  "User id"
// @Success      204
// @Failure      404  {object}  map[string]any
// @Router       /users/{userId} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	var p userIDParam
	if err := bind(c, &p); err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), p.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
