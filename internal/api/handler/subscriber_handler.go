package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

type SubscriberHandler struct {
	service ports.SubscriberService
}

func NewSubscriberHandler(service ports.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{service: service}
}

type subscribeRequest struct {
	Email string `json:"email" validate:"required,max=50,email"`
}

type subscriberResponse struct {
	Message    string             `json:"message"`
	Subscriber *domain.Subscriber `json:"subscriber"`
}

// Subscribe handles POST /api/v1/subscribers.
//
// @Summary      Subscribe to new blog notifications
// @Tags         subscribers
// @Accept       json
// @Produce      json
// @Param        body  body      subscribeRequest  true  "Subscriber email"
// @Success      201   {object}  subscriberResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /subscribers [post]
func (h *SubscriberHandler) Subscribe(c echo.Context) error {
	var req subscribeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	sub, err := h.service.Subscribe(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, subscriberResponse{Message: "Subscriber created successfully", Subscriber: sub})
}
