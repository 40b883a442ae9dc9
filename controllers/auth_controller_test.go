package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/turfbook/turfbook_backend/models"
)

func jsonContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.Response {
	t.Helper()
	var resp models.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	c, rec := jsonContext(t, http.MethodPost, "/register",
		`{"name":"alice","password":"p1","confirmPassword":"p2","email":"a@x.com"}`)

	if err := ac.Register(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Success {
		t.Fatal("expected success=false")
	}
}

func TestRegisterRequiresIdentifier(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	c, rec := jsonContext(t, http.MethodPost, "/register",
		`{"name":"alice","password":"p1","confirmPassword":"p1"}`)

	if err := ac.Register(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterRejectsBothIdentifiers(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	c, rec := jsonContext(t, http.MethodPost, "/register",
		`{"name":"alice","password":"p1","confirmPassword":"p1","email":"a@x.com","phone":"+96171123456"}`)

	if err := ac.Register(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterRejectsUnknownIdentifierType(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	c, rec := jsonContext(t, http.MethodPost, "/register",
		`{"name":"alice","password":"p1","confirmPassword":"p1","type":"fax","value":"12345"}`)

	if err := ac.Register(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterResolvesTypeValuePair(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	// Malformed email through the type/value form fails validation before
	// any store access.
	c, rec := jsonContext(t, http.MethodPost, "/register",
		`{"name":"alice","password":"p1","confirmPassword":"p1","type":"email","value":"not-an-email"}`)

	if err := ac.Register(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Message != "Invalid email format" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestLoginRequiresIdentifierAndPassword(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	c, rec := jsonContext(t, http.MethodPost, "/login", `{"password":"p1"}`)
	if err := ac.Login(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	c, rec = jsonContext(t, http.MethodPost, "/login", `{"email":"a@x.com"}`)
	if err := ac.Login(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterRejectsWhitespaceOnlyPhone(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	// A blank-but-present phone must not slip past the presence check and
	// create an account with no reachable identifier.
	c, rec := jsonContext(t, http.MethodPost, "/register",
		`{"name":"alice","password":"p1","confirmPassword":"p1","phone":"   "}`)

	if err := ac.Register(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Message != "Invalid phone number format" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestRegisterRejectsWhitespaceOnlyName(t *testing.T) {
	ac := NewAuthController(lazyClient(t))

	c, rec := jsonContext(t, http.MethodPost, "/register",
		`{"name":"   ","password":"p1","confirmPassword":"p1","email":"a@x.com"}`)

	if err := ac.Register(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
