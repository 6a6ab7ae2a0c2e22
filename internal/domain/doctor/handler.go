package doctor

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medpraxis/praxis/internal/platform/ability"
	"github.com/medpraxis/praxis/internal/platform/auth"
	"github.com/medpraxis/praxis/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/doctors")
	g.GET("", h.List, ability.Require("index", "Doctor"))
	g.GET("/current", h.Current, ability.Require("current", "Doctor"))
	g.GET("/:id", h.Get, ability.Require("show", "Doctor"))
	g.POST("", h.Create, ability.Require("create", "Doctor"))
	g.PUT("/:id", h.Update, ability.Require("update", "Doctor"))

	g.GET("/:id/offices", h.Offices, ability.Require("show", "Doctor"))
	g.GET("/:id/colleagues", h.Colleagues, ability.Require("show", "Doctor"))
	g.GET("/:id/patients", h.Patients, ability.Require("show", "Doctor"))
	g.GET("/:id/phone_numbers", h.PhoneNumbers, ability.Require("show", "Doctor"))
	g.PUT("/:id/phone_numbers", h.SavePhoneNumbers, ability.Require("update", "Doctor"))
	g.POST("/:id/returned_invoices/request", h.RequestReturnedInvoices, ability.Require("update", "Doctor"))
}

type doctorResponse struct {
	*Doctor
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func present(d *Doctor) doctorResponse {
	return doctorResponse{Doctor: d, Name: d.Name(), DisplayName: d.DisplayName()}
}

func presentAll(ds []*Doctor) []doctorResponse {
	out := make([]doctorResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, present(d))
	}
	return out
}

type officesResponse struct {
	Primary *Office   `json:"primary"`
	Offices []*Office `json:"offices"`
}

type phoneNumbersRequest struct {
	PhoneNumbers    []*PhoneNumber          `json:"phone_numbers"`
	NewPhoneNumbers []PhoneNumberAttributes `json:"new_phone_numbers"`
}

// List searches when ?q= is given and pages through all doctors otherwise.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParams().Has("q") {
		docs, err := h.svc.Search(ctx, c.QueryParam("q"))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, presentAll(docs))
	}

	p := pagination.FromContext(c)
	docs, total, err := h.svc.List(ctx, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if link := p.LinkHeader(c.Request().URL, total); link != "" {
		c.Response().Header().Set("Link", link)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(presentAll(docs), total, p.Limit, p.Offset))
}

func (h *Handler) Current(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.Current(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, present(d))
}

func (h *Handler) Get(c echo.Context) error {
	d, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, present(d))
}

func (h *Handler) Create(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, present(&d))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.Update(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, present(&d))
}

func (h *Handler) Offices(c echo.Context) error {
	d, err := h.load(c)
	if err != nil {
		return err
	}
	offices, err := h.svc.Offices(c.Request().Context(), d.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := officesResponse{Offices: offices}
	if len(offices) > 0 {
		resp.Primary = offices[0]
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Colleagues(c echo.Context) error {
	d, err := h.load(c)
	if err != nil {
		return err
	}
	docs, err := h.svc.Colleagues(c.Request().Context(), d.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, presentAll(docs))
}

func (h *Handler) Patients(c echo.Context) error {
	if err := ability.Authorize(c, "index", "Patient"); err != nil {
		return err
	}
	d, err := h.load(c)
	if err != nil {
		return err
	}
	patients, err := h.svc.Patients(c.Request().Context(), d.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) PhoneNumbers(c echo.Context) error {
	d, err := h.load(c)
	if err != nil {
		return err
	}
	numbers, err := h.svc.PhoneNumbers(c.Request().Context(), d.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, numbers)
}

func (h *Handler) SavePhoneNumbers(c echo.Context) error {
	d, err := h.load(c)
	if err != nil {
		return err
	}
	var req phoneNumbersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, err := h.svc.SavePhoneNumbers(c.Request().Context(), d.ID, req.PhoneNumbers, req.NewPhoneNumbers)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) RequestReturnedInvoices(c echo.Context) error {
	if err := ability.Authorize(c, "update", "ReturnedInvoice"); err != nil {
		return err
	}
	d, err := h.load(c)
	if err != nil {
		return err
	}
	queued, err := h.svc.RequestAllReturnedInvoices(c.Request().Context(), d.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, queued)
}

func (h *Handler) load(c echo.Context) (*Doctor, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err)
	}
	return d, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func httpError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
