package ability

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the caller's resolved abilities.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/abilities", h.List)
	api.GET("/abilities/check", h.Check)
}

type abilitiesResponse struct {
	UserID  string            `json:"user_id,omitempty"`
	Aliases map[string]string `json:"aliases"`
	Grants  []Grant           `json:"grants"`
}

type checkResponse struct {
	Action  string `json:"action"`
	Subject string `json:"subject"`
	Allowed bool   `json:"allowed"`
}

func (h *Handler) List(c echo.Context) error {
	set := FromContext(c.Request().Context())
	return c.JSON(http.StatusOK, abilitiesResponse{
		UserID:  set.UserID(),
		Aliases: set.Aliases(),
		Grants:  set.Grants(),
	})
}

func (h *Handler) Check(c echo.Context) error {
	action := c.QueryParam("action")
	subject := c.QueryParam("subject")
	if action == "" || subject == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "action and subject are required")
	}
	set := FromContext(c.Request().Context())
	return c.JSON(http.StatusOK, checkResponse{
		Action:  action,
		Subject: subject,
		Allowed: set.Can(action, subject),
	})
}
