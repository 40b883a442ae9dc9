package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/turfbook/turfbook_backend/middleware"
	"github.com/turfbook/turfbook_backend/models"
)

// lazyClient returns a driver client that never dials; handlers under test
// only exercise paths that return before any query is issued.
func lazyClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return client
}

func authedContext(t *testing.T, method, target, body, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	return authedContextAs(t, method, target, body, role, primitive.NewObjectID())
}

// authedContextAs pins the caller identity so tests can assert on
// ownership filters.
func authedContextAs(t *testing.T, method, target, body, role string, userID primitive.ObjectID) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.JwtCustomClaims{
		UserID: userID.Hex(),
		Name:   "alice",
		Role:   role,
	})
	c.Set("user", token)
	return c, rec
}

func TestParseSlotDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"25/12/2025", time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC), false},
		{"01/01/2026", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), false},
		{"25-12-2025", time.Time{}, true},
		{"25/12", time.Time{}, true},
		{"25/12/2025/1", time.Time{}, true},
		{"dd/mm/yyyy", time.Time{}, true},
		{"32/01/2026", time.Time{}, true},
		{"01/13/2026", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := parseSlotDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSlotDate(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSlotDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseSlotDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfirmAppointmentRequiresFields(t *testing.T) {
	ac := NewAppointmentController(lazyClient(t))

	c, rec := authedContext(t, http.MethodPost, "/appointment-confirmation",
		`{"slot_range_time":"10:00 AM - 11:00 AM"}`, models.RoleUser)

	if err := ac.ConfirmAppointment(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp models.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success=false")
	}
}

func TestConfirmAppointmentRejectsMalformedDate(t *testing.T) {
	ac := NewAppointmentController(lazyClient(t))

	c, rec := authedContext(t, http.MethodPost, "/appointment-confirmation",
		`{"slot_date":"2025-12-25","slot_range_time":"10:00 AM - 11:00 AM","approx_amount":150}`,
		models.RoleUser)

	if err := ac.ConfirmAppointment(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetAppointmentByIDRejectsMalformedID(t *testing.T) {
	ac := NewAppointmentController(lazyClient(t))

	c, rec := authedContext(t, http.MethodGet, "/appointment/not-an-id", "", models.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("not-an-id")

	if err := ac.GetAppointmentByID(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetAppointmentScopedToOwner(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("foreign appointment reads as not found", func(mt *mtest.T) {
		// The store query binds both the appointment ID and the caller's
		// user ID, so someone else's appointment decodes to no documents.
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "turfbook.appointments", mtest.FirstBatch))

		ac := NewAppointmentController(mt.Client)
		ownerID := primitive.NewObjectID()
		apptID := primitive.NewObjectID()

		c, rec := authedContextAs(mt.T, http.MethodGet, "/appointment/"+apptID.Hex(), "", models.RoleUser, ownerID)
		c.SetParamNames("id")
		c.SetParamValues(apptID.Hex())

		if err := ac.GetAppointmentByID(c); err != nil {
			mt.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			mt.Fatalf("expected 404, got %d", rec.Code)
		}

		evt := mt.GetStartedEvent()
		for evt != nil && evt.CommandName != "find" {
			evt = mt.GetStartedEvent()
		}
		if evt == nil {
			mt.Fatal("no find command captured")
		}
		filter := evt.Command.Lookup("filter").Document()
		if got, ok := filter.Lookup("_id").ObjectIDOK(); !ok || got != apptID {
			mt.Fatalf("expected _id=%s in filter, got %v", apptID.Hex(), filter)
		}
		if got, ok := filter.Lookup("userId").ObjectIDOK(); !ok || got != ownerID {
			mt.Fatalf("expected userId=%s in filter, got %v", ownerID.Hex(), filter)
		}
	})
}

func TestApproveAppointmentRejectsMalformedID(t *testing.T) {
	ac := NewAppointmentController(lazyClient(t))

	c, rec := authedContext(t, http.MethodPatch, "/appointment-approve/zzz", "", models.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("zzz")

	if err := ac.ApproveAppointment(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
