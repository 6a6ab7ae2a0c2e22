package role

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"

	"github.com/medpraxis/praxis/internal/platform/ability"
)

func newTestHandler(t *testing.T, names ...string) (*Handler, *mockRoleRepo, *echo.Echo) {
	t.Helper()
	svc, repo := newTestService(t, names...)
	labels := ability.NewLabels(language.German)
	_ = labels.Add(language.German, "doctor", "Arzt")
	_ = labels.Add(language.English, "doctor", "Doctor")
	_ = labels.Add(language.German, "receptionist", "Empfang")
	return NewHandler(svc, labels), repo, echo.New()
}

func TestHandler_List_Localized(t *testing.T) {
	h, _, e := newTestHandler(t, "admin", "doctor", "receptionist")

	tests := []struct {
		acceptLanguage string
		wantLang       string
		want           []ability.RoleOption
	}{
		{"", "de", []ability.RoleOption{
			{Label: "Administrator", Name: "admin"},
			{Label: "Arzt", Name: "doctor"},
			{Label: "Empfang", Name: "receptionist"},
		}},
		{"en-US,en;q=0.9", "en", []ability.RoleOption{
			{Label: "Administrator", Name: "admin"},
			{Label: "Doctor", Name: "doctor"},
			{Label: "Empfang", Name: "receptionist"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.wantLang, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
			if tt.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tt.acceptLanguage)
			}
			rec := httptest.NewRecorder()
			if err := h.List(e.NewContext(req, rec)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := rec.Header().Get("Content-Language"); got != tt.wantLang {
				t.Errorf("Content-Language = %s, want %s", got, tt.wantLang)
			}
			var got []ability.RoleOption
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("option[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHandler_List_StoreError(t *testing.T) {
	h, repo, e := newTestHandler(t)
	repo.err = errors.New("connection refused")

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil), httptest.NewRecorder())
	err := h.List(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
}

func TestHandler_Create(t *testing.T) {
	h, _, e := newTestHandler(t, "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/roles", strings.NewReader(`{"name":"bookkeeper"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var r Role
	json.Unmarshal(rec.Body.Bytes(), &r)
	if r.Name != "bookkeeper" {
		t.Errorf("expected bookkeeper, got %s", r.Name)
	}
}

func TestHandler_Create_StatusCodes(t *testing.T) {
	tests := []struct {
		body string
		code int
	}{
		{`{"name":"Bad Name"}`, http.StatusUnprocessableEntity},
		{`{"name":"janitor"}`, http.StatusUnprocessableEntity},
		{`{"name":"doctor"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			h, _, e := newTestHandler(t, "admin", "doctor")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/roles", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			err := h.Create(e.NewContext(req, httptest.NewRecorder()))
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %v", err)
			}
			if httpErr.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, httpErr.Code)
			}
		})
	}
}

func TestHandler_GetAndDelete(t *testing.T) {
	h, _, e := newTestHandler(t, "admin", "doctor")

	get := func(name string) error {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("name")
		c.SetParamValues(name)
		return h.Get(c)
	}
	if err := get("doctor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("name")
	c.SetParamValues("doctor")
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	httpErr, ok := get("doctor").(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %v", httpErr)
	}
}

func TestHandler_Routes_RequireAbility(t *testing.T) {
	h, _, e := newTestHandler(t, "admin", "doctor")
	reg := newTestRegistry(t)
	resolver := ability.NewResolver(reg)

	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := ability.NewUser("u-1", c.Request().Header.Get("X-Test-Role"))
			set, err := resolver.Resolve(&u)
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(ability.WithPermissionSet(c.Request().Context(), set)))
			return next(c)
		}
	})
	h.RegisterRoutes(api)

	tests := []struct {
		role   string
		method string
		path   string
		code   int
	}{
		{"admin", http.MethodGet, "/api/v1/roles", http.StatusOK},
		{"receptionist", http.MethodGet, "/api/v1/roles", http.StatusForbidden},
		{"receptionist", http.MethodDelete, "/api/v1/roles/doctor", http.StatusForbidden},
		{"admin", http.MethodDelete, "/api/v1/roles/doctor", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.Header.Set("X-Test-Role", tt.role)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tt.code {
			t.Errorf("%s %s as %s: expected %d, got %d", tt.method, tt.path, tt.role, tt.code, rec.Code)
		}
	}
}
