package handlers

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/neogan74/fedbridge/internal/bridge"
	"github.com/neogan74/fedbridge/internal/logger"
)

// wireEvent is the websocket frame for one bridge message
type wireEvent struct {
	ID      string      `json:"id,omitempty"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventsHandler streams bridge messages to the presentation layer over
// a websocket. The bridge channel has exactly one consumer, so only one
// connection may be active at a time.
type EventsHandler struct {
	channel  *bridge.Channel
	log      logger.Logger
	attached atomic.Bool
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(channel *bridge.Channel, log logger.Logger) *EventsHandler {
	return &EventsHandler{
		channel: channel,
		log:     log,
	}
}

// Stream handles a websocket event stream connection
func (h *EventsHandler) Stream(c *websocket.Conn) {
	if !h.attached.CompareAndSwap(false, true) {
		h.log.Warn("Rejecting second event stream consumer")
		c.WriteJSON(fiber.Map{
			"error":   "conflict",
			"message": "event stream already has a consumer",
		})
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "single consumer"))
		return
	}
	defer h.attached.Store(false)

	h.log.Info("Event stream consumer attached")

	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	// Read loop only detects client disconnect
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-h.channel.Messages():
			if !ok {
				return
			}
			event := wireEvent{
				Type:    msg.Payload.Type(),
				Payload: msg.Payload,
			}
			if msg.ID != nil {
				event.ID = msg.ID.String()
			}
			if err := c.WriteJSON(event); err != nil {
				h.log.Error("Failed to write event", logger.Error(err))
				return
			}

		case <-pingTicker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}

		case <-h.channel.Done():
			h.log.Info("Bridge channel closed, ending event stream")
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
			return

		case <-disconnected:
			h.log.Info("Event stream consumer disconnected")
			return
		}
	}
}
