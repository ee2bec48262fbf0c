package handlers

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/neogan74/fedbridge/internal/persistence"
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status     string           `json:"status"`
	Version    string           `json:"version"`
	Uptime     string           `json:"uptime"`
	Timestamp  time.Time        `json:"timestamp"`
	Reconciler ReconcilerHealth `json:"reconciler"`
	Operations OperationsHealth `json:"operations"`
	System     SystemHealth     `json:"system"`
}

type ReconcilerHealth struct {
	ActiveTasks int `json:"active_tasks"`
}

type OperationsHealth struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
}

type SystemHealth struct {
	Goroutines  int    `json:"goroutines"`
	MemoryAlloc uint64 `json:"memory_alloc_bytes"`
	MemorySys   uint64 `json:"memory_sys_bytes"`
	NumGC       uint32 `json:"num_gc"`
}

// TaskCounter reports how many reconciler tasks are running
type TaskCounter interface {
	Active() int
}

// HealthHandler handles health check operations
type HealthHandler struct {
	engine    persistence.Engine
	tasks     TaskCounter
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(engine persistence.Engine, tasks TaskCounter, version string) *HealthHandler {
	return &HealthHandler{
		engine:    engine,
		tasks:     tasks,
		startTime: time.Now(),
		version:   version,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	history, err := h.engine.GetTransactionHistory()
	if err != nil {
		history = nil
	}
	pending := 0
	failed := 0
	for _, rec := range history {
		switch rec.Status {
		case persistence.StatusPending:
			pending++
		case persistence.StatusFailed:
			failed++
		}
	}

	status := HealthStatus{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now(),
		Reconciler: ReconcilerHealth{
			ActiveTasks: h.tasks.Active(),
		},
		Operations: OperationsHealth{
			Total:   len(history),
			Pending: pending,
			Failed:  failed,
		},
		System: SystemHealth{
			Goroutines:  runtime.NumGoroutine(),
			MemoryAlloc: m.Alloc,
			MemorySys:   m.Sys,
			NumGC:       m.NumGC,
		},
	}

	return c.JSON(status)
}

// Liveness is a simple liveness probe
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// Readiness checks if the service is ready to accept traffic
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	if _, err := h.engine.ListFederations(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "not ready",
			"timestamp": time.Now(),
		})
	}

	return c.JSON(fiber.Map{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}
