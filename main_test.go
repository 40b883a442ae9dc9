package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	// A client pointed at nothing: the ping must fail and the handler
	// must say so instead of claiming a connection.
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://127.0.0.1:1").
			SetServerSelectionTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := healthHandler(client)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["database"] != "disconnected" {
		t.Fatalf("expected database=disconnected, got %q", body["database"])
	}
}
