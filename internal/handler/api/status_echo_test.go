package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/risk"
	"TradePulse/internal/service/cache"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/services/model"
	"TradePulse/internal/tickstore"
	xlogger "TradePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*StatusEchoHandler, *echo.Echo, *risk.Manager) {
	t.Helper()
	riskMgr := risk.NewManager(risk.Config{
		InitialBalance: 10.0,
		MaxDailyLoss:   0.50,
		MaxDrawdown:    1.00,
		StreakLimit:    5,
		MinConfidence:  0.65,
		MaxDailyTrades: 20,
		TradingEnd:     24*60 - 1,
	})
	ticks := tickstore.New(100)
	h := NewStatusEchoHandler(
		xlogger.Nop(),
		riskMgr,
		ticks,
		model.NewClassifier(50),
		nil, // no archive: endpoints fall back to in-memory state
		cache.NewTTLCache(),
		ratelimit.New(),
	)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e, riskMgr
}

func doGet(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Status int                    `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", body.Status)
	}
	return body.Data
}

func TestHealthEndpoint(t *testing.T) {
	_, e, _ := newTestHandler(t)
	rec := doGet(e, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["status"] != "ok" {
		t.Fatalf("health = %v", data)
	}
}

func TestStatsReflectsLedger(t *testing.T) {
	_, e, riskMgr := newTestHandler(t)
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	riskMgr.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeWin, 0.092, 0.7, now)

	data := decodeData(t, doGet(e, "/api/stats"))
	if data["TotalTrades"] != float64(1) {
		t.Fatalf("TotalTrades = %v, want 1", data["TotalTrades"])
	}
	if bal, _ := data["Balance"].(float64); math.Abs(bal-10.092) > 1e-9 {
		t.Fatalf("Balance = %v, want 10.092", data["Balance"])
	}
}

func TestTradesFallsBackToLedgerWithoutArchive(t *testing.T) {
	_, e, riskMgr := newTestHandler(t)
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	riskMgr.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeLoss, -0.10, 0.7, now)
	riskMgr.Record("GBPUSD", 0.10, models.DirectionPut, models.OutcomeWin, 0.092, 0.7, now)

	rec := doGet(e, "/api/trades?symbol=EURUSD&limit=10")
	var body struct {
		Status int                      `json:"status"`
		Data   []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("got %d trades, want 1 after symbol filter", len(body.Data))
	}
	if body.Data[0]["Symbol"] != "EURUSD" {
		t.Fatalf("symbol = %v", body.Data[0]["Symbol"])
	}
}

func TestTicksValidatesRequest(t *testing.T) {
	_, e, _ := newTestHandler(t)
	rec := doGet(e, "/api/ticks")

	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("missing symbol accepted: status %d", body.Status)
	}
}

func TestModelEndpoint(t *testing.T) {
	_, e, _ := newTestHandler(t)
	data := decodeData(t, doGet(e, "/api/model"))
	if data["trained"] != false {
		t.Fatalf("trained = %v, want false", data["trained"])
	}
}

func TestStatsIsCached(t *testing.T) {
	_, e, riskMgr := newTestHandler(t)

	first := decodeData(t, doGet(e, "/api/stats"))
	if first["TotalTrades"] != float64(0) {
		t.Fatalf("TotalTrades = %v, want 0", first["TotalTrades"])
	}

	// mutate after the first read: the cached response must still be served
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	riskMgr.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeWin, 0.092, 0.7, now)

	second := decodeData(t, doGet(e, "/api/stats"))
	if second["TotalTrades"] != float64(0) {
		t.Fatalf("cache bypassed: TotalTrades = %v", second["TotalTrades"])
	}
}
