package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/middleware"
	"github.com/neogan74/fedbridge/internal/persistence"
)

// HistoryHandler serves operation records and the transaction history
type HistoryHandler struct {
	engine persistence.Engine
	log    logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(engine persistence.Engine, log logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		engine: engine,
		log:    log,
	}
}

// List returns the full transaction history, newest first
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	history, err := h.engine.GetTransactionHistory()
	if err != nil {
		log.Error("Failed to read transaction history", logger.Error(err))
		return middleware.InternalServerError(c, "Failed to read transaction history")
	}

	// Optional filter on operation kind
	if kind := c.Query("kind"); kind != "" {
		filtered := make(persistence.History, 0, len(history))
		for _, rec := range history {
			if string(rec.Kind) == kind {
				filtered = append(filtered, rec)
			}
		}
		history = filtered
	}

	return c.JSON(fiber.Map{
		"count":   len(history),
		"history": history,
	})
}

// Get returns a single operation record by id
func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	id := c.Params("id")
	if id == "" {
		return middleware.BadRequest(c, "operation id is required")
	}

	rec, err := h.engine.GetOperationRecord(persistence.OperationID(id))
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return middleware.NotFound(c, "operation not found: "+id)
		}
		log.Error("Failed to read operation record",
			logger.String("operation_id", id),
			logger.Error(err))
		return middleware.InternalServerError(c, "Failed to read operation record")
	}

	return c.JSON(rec)
}
