// Package api exposes the thin HTTP/WS surface: a health check, trigger
// registry CRUD, and a /ws/events subscription relay onto the broadcast
// bus. Everything domain-heavy lives below this layer. Built around
// fiber.New with cors and logger middleware, a setupRoutes registration
// style, and a websocket.New handler wrapping pattern.
package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	"github.com/marketflux/eventengine/internal/alertstream"
	"github.com/marketflux/eventengine/internal/broadcast"
	"github.com/marketflux/eventengine/internal/dbstore"
	"github.com/marketflux/eventengine/internal/engine"
	"github.com/marketflux/eventengine/internal/event"
	"github.com/marketflux/eventengine/internal/trigger"
)

// App wires the HTTP surface to the engine, hub, and trigger registry.
type App struct {
	app         *fiber.App
	hub         *broadcast.Hub
	engine      *engine.Engine
	trigger     *trigger.Engine
	db          *dbstore.DB
	alertStream *alertstream.Store
}

// New constructs the fiber application and registers every route.
func New(db *dbstore.DB, eng *engine.Engine, hub *broadcast.Hub, trig *trigger.Engine, alerts *alertstream.Store) *App {
	app := fiber.New(fiber.Config{
		AppName:      "marketflux-eventengine",
		ServerHeader: "eventengine",
	})

	app.Use(logger.New())
	app.Use(cors.New())

	a := &App{app: app, hub: hub, engine: eng, trigger: trig, db: db, alertStream: alerts}
	a.setupRoutes()
	return a
}

func (a *App) setupRoutes() {
	a.app.Get("/healthz", a.healthCheck)

	a.app.Post("/triggers", a.createTrigger)
	a.app.Delete("/triggers/:userId/:triggerId", a.deleteTrigger)
	a.app.Get("/alerts/:userId", a.listAlerts)

	a.app.Use("/ws/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	a.app.Get("/ws/events", websocket.New(a.handleEventStream))
}

func (a *App) healthCheck(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "eventengine",
	}
	if a.engine != nil {
		resp["detector_errors"] = a.engine.DetectorErrorCount()
	}
	if a.hub != nil {
		resp["broadcast_dropped"] = a.hub.Dropped()
	}
	return c.JSON(resp)
}

type createTriggerRequest struct {
	TriggerID       string   `json:"trigger_id"`
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	Enabled         bool     `json:"enabled"`
	AllowedTypes    []string `json:"allowed_types"`
	SymbolInclude   []string `json:"symbol_include"`
	SymbolExclude   []string `json:"symbol_exclude"`
	MinPrice        *float64 `json:"min_price"`
	MinVolume       *int64   `json:"min_volume"`
	MinRVOL         *float64 `json:"min_rvol"`
	Action          string   `json:"action"`
	WorkflowID      string   `json:"workflow_id"`
	AlertTemplate   string   `json:"alert_template"`
	CooldownSeconds int      `json:"cooldown_seconds"`
}

func (a *App) createTrigger(c *fiber.Ctx) error {
	var req createTriggerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cfg := trigger.Config{
		TriggerID:       req.TriggerID,
		UserID:          req.UserID,
		Name:            req.Name,
		Enabled:         req.Enabled,
		SymbolInclude:   req.SymbolInclude,
		SymbolExclude:   req.SymbolExclude,
		MinPrice:        req.MinPrice,
		MinVolume:       req.MinVolume,
		MinRVOL:         req.MinRVOL,
		Action:          trigger.Action(req.Action),
		WorkflowID:      req.WorkflowID,
		AlertTemplate:   req.AlertTemplate,
		CooldownSeconds: req.CooldownSeconds,
	}
	for _, t := range req.AllowedTypes {
		cfg.AllowedTypes = append(cfg.AllowedTypes, event.Type(t))
	}

	if err := a.trigger.Register(cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "registered", "trigger_id": cfg.TriggerID})
}

func (a *App) deleteTrigger(c *fiber.Ctx) error {
	userID := c.Params("userId")
	triggerID := c.Params("triggerId")

	if err := a.trigger.Unregister(userID, triggerID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

// listAlerts returns the most recent entries from a user's bounded alert
// stream, newest last. The optional ?limit= query caps how many are
// returned; an absent or non-positive limit returns the whole stream.
func (a *App) listAlerts(c *fiber.Ctx) error {
	userID := c.Params("userId")
	limit, _ := strconv.Atoi(c.Query("limit"))

	if a.alertStream == nil {
		return c.JSON(fiber.Map{"user_id": userID, "alerts": []alertstream.Message{}})
	}
	return c.JSON(fiber.Map{"user_id": userID, "alerts": a.alertStream.Recent(userID, limit)})
}

// handleEventStream relays the broadcast bus onto one WebSocket connection.
// Each connection gets its own bounded mailbox (broadcast.Client); a slow
// reader is dropped from, never blocks, the publishing path.
func (a *App) handleEventStream(c *websocket.Conn) {
	client := a.hub.Subscribe()
	defer a.hub.Unsubscribe(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-client.Recv():
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Listen starts the HTTP server. Blocks until the listener exits.
func (a *App) Listen(addr string) error {
	return a.app.Listen(addr)
}

// Shutdown gracefully drains in-flight requests.
func (a *App) Shutdown() error {
	return a.app.Shutdown()
}
