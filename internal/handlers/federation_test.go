package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/neogan74/fedbridge/internal/gateway"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/middleware"
	"github.com/neogan74/fedbridge/internal/persistence"
)

type fakeFederation struct {
	id       string
	network  string
	balance  uint64
	gateways []gateway.Candidate
}

func (f *fakeFederation) FederationID() string { return f.id }
func (f *fakeFederation) Network() string      { return f.network }
func (f *fakeFederation) SnapshotSize() int    { return 3 }

func (f *fakeFederation) Balance(ctx context.Context) (uint64, error) {
	return f.balance, nil
}

func (f *fakeFederation) SelectGateway(ctx context.Context) (*gateway.Gateway, error) {
	if len(f.gateways) == 0 {
		return nil, gateway.ErrNoGateway
	}
	gw := f.gateways[0]
	return &gateway.Gateway{GatewayID: gw.GatewayID, Fees: gw.Fees}, nil
}

func (f *fakeFederation) CachedGateways() ([]gateway.Candidate, bool) {
	return f.gateways, len(f.gateways) > 0
}

func federationApp(t *testing.T, fed Federation) (*fiber.App, *persistence.MemoryEngine) {
	t.Helper()
	engine := persistence.NewMemoryEngine()
	log := logger.NewFromConfig("error", "text")

	handler := NewFederationHandler(engine, fed, log)
	app := fiber.New()
	app.Use(middleware.RequestLogging(log))
	app.Get("/federations", handler.List)
	app.Get("/federations/gateways", handler.Gateways)
	app.Post("/federations/gateways/select", handler.SelectGateway)
	app.Get("/federations/:id", handler.Get)
	return app, engine
}

func TestFederationList(t *testing.T) {
	fed := &fakeFederation{id: "fed-1", network: "signet"}
	app, engine := federationApp(t, fed)

	if err := engine.InsertNewFederation("fed-1", []byte("[]")); err != nil {
		t.Fatalf("InsertNewFederation() error = %v", err)
	}
	if err := engine.InsertNewFederation("fed-2", []byte("[]")); err != nil {
		t.Fatalf("InsertNewFederation() error = %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/federations", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var body struct {
		Count       int              `json:"count"`
		Federations []FederationView `json:"federations"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("expected 2 federations, got %d", body.Count)
	}

	connected := 0
	for _, view := range body.Federations {
		if view.Connected {
			connected++
			if view.FederationID != "fed-1" {
				t.Errorf("connected federation = %q, want fed-1", view.FederationID)
			}
		}
	}
	if connected != 1 {
		t.Errorf("expected exactly one connected federation, got %d", connected)
	}
}

func TestFederationGet(t *testing.T) {
	fed := &fakeFederation{id: "fed-1", network: "signet", balance: 100_000}
	app, engine := federationApp(t, fed)

	if err := engine.InsertNewFederation("fed-1", []byte("[]")); err != nil {
		t.Fatalf("InsertNewFederation() error = %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/federations/fed-1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var view FederationView
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !view.Connected {
		t.Error("expected federation to be connected")
	}
	if view.Network != "signet" {
		t.Errorf("network = %q, want signet", view.Network)
	}
	if view.BalanceMsat != 100_000 {
		t.Errorf("balance = %d, want 100000", view.BalanceMsat)
	}
}

func TestFederationGetNotFound(t *testing.T) {
	app, _ := federationApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/federations/ghost", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestGatewaysNoFederation(t *testing.T) {
	app, _ := federationApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/federations/gateways", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestSelectGatewayNoneUsable(t *testing.T) {
	fed := &fakeFederation{id: "fed-1"}
	app, _ := federationApp(t, fed)

	resp, err := app.Test(httptest.NewRequest("POST", "/federations/gateways/select", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestSelectGateway(t *testing.T) {
	fed := &fakeFederation{
		id: "fed-1",
		gateways: []gateway.Candidate{
			{GatewayID: "gw-1", Vetted: true},
		},
	}
	app, _ := federationApp(t, fed)

	resp, err := app.Test(httptest.NewRequest("POST", "/federations/gateways/select", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var gw gateway.Gateway
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &gw); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if gw.GatewayID != "gw-1" {
		t.Errorf("gateway id = %q, want gw-1", gw.GatewayID)
	}
}
