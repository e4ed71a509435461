package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type pageRequest struct {
	Limit  int    `query:"limit" default:"20" validate:"gte=1,lte=500"`
	Window int    `query:"window_days" default:"30" validate:"gte=0"`
	Order  string `query:"order" default:"desc" validate:"oneof=asc desc"`
}

func bindQuery(t *testing.T, query string) (pageRequest, []ValidationError) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/runs"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	var r pageRequest
	errs := ReadAndValidateRequest(c, &r)
	return r, errs
}

func TestReadAndValidateAppliesDefaults(t *testing.T) {
	r, errs := bindQuery(t, "")
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if r.Limit != 20 || r.Window != 30 || r.Order != "desc" {
		t.Fatalf("defaults not applied: %+v", r)
	}
}

func TestReadAndValidateKeepsExplicitZero(t *testing.T) {
	r, errs := bindQuery(t, "?window_days=0")
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if r.Window != 0 {
		t.Fatalf("window_days replaced: %d", r.Window)
	}
}

func TestReadAndValidateRejectsZeroLimit(t *testing.T) {
	_, errs := bindQuery(t, "?limit=0")
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %+v", errs)
	}
	if errs[0].Code != "ERR_GTE" || errs[0].Field != "limit" {
		t.Fatalf("unexpected error %+v", errs[0])
	}
	if errs[0].Message != "limit must be at least 1" {
		t.Fatalf("message %q", errs[0].Message)
	}
}

func TestReadAndValidateBindFailure(t *testing.T) {
	_, errs := bindQuery(t, "?limit=abc")
	if len(errs) != 1 || errs[0].Code != "ERR_BIND" {
		t.Fatalf("expected bind error, got %+v", errs)
	}
}
