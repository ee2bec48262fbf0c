package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/neogan74/fedbridge/internal/gateway"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/middleware"
	"github.com/neogan74/fedbridge/internal/persistence"
)

// FederationView is a connected federation as the admin API exposes it
type FederationView struct {
	FederationID string `json:"federation_id"`
	Network      string `json:"network,omitempty"`
	BalanceMsat  uint64 `json:"balance_msat,omitempty"`
	SnapshotKeys int    `json:"snapshot_keys,omitempty"`
	Connected    bool   `json:"connected"`
}

// Federation is the running client's surface the admin API needs
type Federation interface {
	FederationID() string
	Network() string
	Balance(ctx context.Context) (uint64, error)
	SnapshotSize() int
	SelectGateway(ctx context.Context) (*gateway.Gateway, error)
	CachedGateways() ([]gateway.Candidate, bool)
}

// FederationHandler serves federation and gateway information
type FederationHandler struct {
	engine     persistence.Engine
	federation Federation // nil until a federation is joined
	log        logger.Logger
}

// NewFederationHandler creates a new federation handler
func NewFederationHandler(engine persistence.Engine, federation Federation, log logger.Logger) *FederationHandler {
	return &FederationHandler{
		engine:     engine,
		federation: federation,
		log:        log,
	}
}

// List returns every federation known to durable storage
func (h *FederationHandler) List(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	ids, err := h.engine.ListFederations()
	if err != nil {
		log.Error("Failed to list federations", logger.Error(err))
		return middleware.InternalServerError(c, "Failed to list federations")
	}

	views := make([]FederationView, 0, len(ids))
	for _, id := range ids {
		view := FederationView{FederationID: id}
		if h.federation != nil && h.federation.FederationID() == id {
			view.Connected = true
		}
		views = append(views, view)
	}

	return c.JSON(fiber.Map{
		"count":       len(views),
		"federations": views,
	})
}

// Get returns details for one federation
func (h *FederationHandler) Get(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	id := c.Params("id")
	if id == "" {
		return middleware.BadRequest(c, "federation id is required")
	}

	blob, err := h.engine.GetFederationValue(id)
	if err != nil {
		log.Error("Failed to read federation",
			logger.String("federation_id", id),
			logger.Error(err))
		return middleware.InternalServerError(c, "Failed to read federation")
	}
	if blob == nil {
		return middleware.NotFound(c, "federation not found: "+id)
	}

	view := FederationView{FederationID: id}
	if h.federation != nil && h.federation.FederationID() == id {
		view.Connected = true
		view.Network = h.federation.Network()
		view.SnapshotKeys = h.federation.SnapshotSize()
		if balance, err := h.federation.Balance(c.UserContext()); err == nil {
			view.BalanceMsat = balance
		} else {
			log.Warn("Failed to query balance", logger.Error(err))
		}
	}

	return c.JSON(view)
}

// Gateways returns the cached gateway registry for the connected
// federation
func (h *FederationHandler) Gateways(c *fiber.Ctx) error {
	if h.federation == nil {
		return middleware.NotFound(c, "no federation connected")
	}

	candidates, fresh := h.federation.CachedGateways()
	return c.JSON(fiber.Map{
		"count":    len(candidates),
		"fresh":    fresh,
		"gateways": candidates,
	})
}

// SelectGateway runs gateway selection and returns the chosen gateway
func (h *FederationHandler) SelectGateway(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	if h.federation == nil {
		return middleware.NotFound(c, "no federation connected")
	}

	gw, err := h.federation.SelectGateway(c.UserContext())
	if err != nil {
		if errors.Is(err, gateway.ErrNoGateway) {
			return middleware.NotFound(c, "no usable gateway")
		}
		log.Error("Gateway selection failed", logger.Error(err))
		return middleware.InternalServerError(c, "Gateway selection failed")
	}

	return c.JSON(gw)
}
