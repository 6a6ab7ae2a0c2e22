package role

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medpraxis/praxis/internal/platform/ability"
)

type Handler struct {
	svc *Service
	dir *ability.Directory
}

func NewHandler(svc *Service, labels *ability.Labels) *Handler {
	return &Handler{svc: svc, dir: ability.NewDirectory(svc, labels)}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/roles", h.List, ability.Require("index", "Role"))
	api.GET("/roles/:name", h.Get, ability.Require("show", "Role"))
	api.POST("/roles", h.Create, ability.Require("create", "Role"))
	api.DELETE("/roles/:name", h.Delete, ability.Require("destroy", "Role"))
}

type createRequest struct {
	Name string `json:"name"`
}

// List returns every declared role with its label in the caller's language.
func (h *Handler) List(c echo.Context) error {
	lang := h.dir.Labels().Match(c.Request().Header.Get("Accept-Language"))
	opts, err := h.dir.Options(c.Request().Context(), lang)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set("Content-Language", lang.String())
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) Get(c echo.Context) error {
	r, err := h.svc.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Create(c.Request().Context(), req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrNoHandler), errors.Is(err, ErrBuiltinRole):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
