package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/reelhub/internal/app/features/health"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/mongostore"
	"github.com/dalemusser/reelhub/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
	Message  string `json:"message"`
	Error    string `json:"error"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	h.Serve(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
	var body healthBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, body
}

func TestServe_DatabaseConnected(t *testing.T) {
	handler := health.NewHandler(memstore.New(), zap.NewNop())

	rec, body := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Status != "ok" || body.Service != "reels-api" || body.Database != "connected" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Error != "" {
		t.Errorf("expected no error, got %q", body.Error)
	}
}

func TestServe_DatabaseDisconnected(t *testing.T) {
	store := memstore.New()
	_ = store.Close(context.Background())
	handler := health.NewHandler(store, zap.NewNop())

	rec, body := serve(t, handler)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Database != "disconnected" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Service != "reels-api" {
		t.Errorf("service = %q", body.Service)
	}
	if body.Error == "" {
		t.Error("expected error detail")
	}
}

func TestServe_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(mongostore.New(db.Client(), db, zap.NewNop()), zap.NewNop())

	rec, _ := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRoutes(t *testing.T) {
	r := health.Routes(health.NewHandler(memstore.New(), zap.NewNop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
