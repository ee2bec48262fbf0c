package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/middleware"
	"github.com/neogan74/fedbridge/internal/persistence"
)

func historyApp(t *testing.T) (*fiber.App, *persistence.MemoryEngine) {
	t.Helper()
	engine := persistence.NewMemoryEngine()
	log := logger.NewFromConfig("error", "text")

	handler := NewHistoryHandler(engine, log)
	app := fiber.New()
	app.Use(middleware.RequestLogging(log))
	app.Get("/history", handler.List)
	app.Get("/history/:id", handler.Get)
	return app, engine
}

func seedOperation(t *testing.T, engine persistence.Engine, id string, kind persistence.OperationKind) {
	t.Helper()
	err := engine.CreateOperationRecord(persistence.OperationRecord{
		OperationID: persistence.OperationID(id),
		MsgID:       uuid.New(),
		Kind:        kind,
		Status:      persistence.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateOperationRecord() error = %v", err)
	}
}

func TestHistoryList(t *testing.T) {
	app, engine := historyApp(t)
	seedOperation(t, engine, "op-1", persistence.KindLightningReceive)
	seedOperation(t, engine, "op-2", persistence.KindOnchainPay)

	resp, err := app.Test(httptest.NewRequest("GET", "/history", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Count   int                 `json:"count"`
		History persistence.History `json:"history"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("expected 2 records, got %d", body.Count)
	}
}

func TestHistoryListFilterByKind(t *testing.T) {
	app, engine := historyApp(t)
	seedOperation(t, engine, "op-1", persistence.KindLightningReceive)
	seedOperation(t, engine, "op-2", persistence.KindOnchainPay)

	resp, err := app.Test(httptest.NewRequest("GET", "/history?kind=onchain_pay", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var body struct {
		Count   int                 `json:"count"`
		History persistence.History `json:"history"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("expected 1 record, got %d", body.Count)
	}
	if body.History[0].Kind != persistence.KindOnchainPay {
		t.Errorf("expected onchain_pay record, got %q", body.History[0].Kind)
	}
}

func TestHistoryGet(t *testing.T) {
	app, engine := historyApp(t)
	seedOperation(t, engine, "op-1", persistence.KindLightningPay)

	resp, err := app.Test(httptest.NewRequest("GET", "/history/op-1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var rec persistence.OperationRecord
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if rec.OperationID != "op-1" {
		t.Errorf("expected op-1, got %q", rec.OperationID)
	}
}

func TestHistoryGetNotFound(t *testing.T) {
	app, _ := historyApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/history/missing", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}
