package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"landsmon/internal/alert"
	"landsmon/internal/model"
	"landsmon/internal/notify"
)

type Handler struct {
	registry   *alert.Registry
	evaluator  *alert.Evaluator
	channels   *notify.Channels
	dispatcher *notify.Dispatcher
}

func NewHandler(reg *alert.Registry, ev *alert.Evaluator, ch *notify.Channels, d *notify.Dispatcher) *Handler {
	return &Handler{registry: reg, evaluator: ev, channels: ch, dispatcher: d}
}

// --- Thresholds ---

func (h *Handler) ListThresholds(c *fiber.Ctx) error {
	thresholds, err := h.registry.List(c.Context())
	if err != nil {
		return fmt.Errorf("list thresholds: %w", err)
	}
	return c.JSON(fiber.Map{"data": thresholds})
}

func (h *Handler) GetThreshold(c *fiber.Ctx) error {
	t, err := h.registry.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapAlertError(err, "threshold", c.Params("id"))
	}
	return c.JSON(fiber.Map{"data": t})
}

func (h *Handler) CreateThreshold(c *fiber.Ctx) error {
	var t model.Threshold
	if err := c.BodyParser(&t); err != nil {
		return BadRequestError("invalid request body")
	}

	created, err := h.registry.Create(c.Context(), t)
	if err != nil {
		return mapAlertError(err, "threshold", t.ID)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

func (h *Handler) UpdateThreshold(c *fiber.Ctx) error {
	var upd model.ThresholdUpdate
	if err := c.BodyParser(&upd); err != nil {
		return BadRequestError("invalid request body")
	}

	t, err := h.registry.Update(c.Context(), c.Params("id"), upd)
	if err != nil {
		return mapAlertError(err, "threshold", c.Params("id"))
	}
	return c.JSON(fiber.Map{"data": t})
}

func (h *Handler) DeleteThreshold(c *fiber.Ctx) error {
	ok, err := h.registry.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return fmt.Errorf("delete threshold: %w", err)
	}
	if !ok {
		return NotFoundError("threshold", c.Params("id"))
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func (h *Handler) ResetThresholds(c *fiber.Ctx) error {
	if err := h.registry.ResetToDefaults(c.Context()); err != nil {
		return fmt.Errorf("reset thresholds: %w", err)
	}
	thresholds, err := h.registry.List(c.Context())
	if err != nil {
		return fmt.Errorf("reset thresholds: %w", err)
	}
	return c.JSON(fiber.Map{"data": thresholds})
}

// --- Alerts ---

func (h *Handler) ListAlerts(c *fiber.Ctx) error {
	var (
		events []model.AlertEvent
		err    error
	)
	if c.QueryBool("unacknowledged") {
		events, err = h.evaluator.Unacknowledged(c.Context())
	} else {
		events, err = h.evaluator.History(c.Context())
	}
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	if events == nil {
		events = []model.AlertEvent{}
	}
	return c.JSON(fiber.Map{"data": events})
}

func (h *Handler) AlertSummary(c *fiber.Ctx) error {
	summary, err := h.evaluator.Summary(c.Context())
	if err != nil {
		return fmt.Errorf("alert summary: %w", err)
	}
	return c.JSON(fiber.Map{"data": summary})
}

func (h *Handler) AcknowledgeAlert(c *fiber.Ctx) error {
	ok, err := h.evaluator.Acknowledge(c.Context(), c.Params("id"))
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	if !ok {
		return NotFoundError("alert", c.Params("id"))
	}
	return c.JSON(fiber.Map{"acknowledged": true})
}

func (h *Handler) AcknowledgeAll(c *fiber.Ctx) error {
	n, err := h.evaluator.AcknowledgeAll(c.Context())
	if err != nil {
		return fmt.Errorf("acknowledge all: %w", err)
	}
	return c.JSON(fiber.Map{"acknowledged": n})
}

// EvaluateMetrics ingests a usage snapshot, runs an evaluation cycle and
// dispatches every triggered event to the subscribed webhook channels.
func (h *Handler) EvaluateMetrics(c *fiber.Ctx) error {
	var m model.UsageMetrics
	if err := c.BodyParser(&m); err != nil {
		return BadRequestError("invalid request body")
	}

	events, err := h.evaluator.Evaluate(c.Context(), m)
	if err != nil {
		return fmt.Errorf("evaluate metrics: %w", err)
	}

	channels, err := h.channels.List(c.Context())
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	for _, ev := range events {
		targets := channels
		if t, err := h.registry.Get(c.Context(), ev.ThresholdID); err == nil && !t.NotifyEmail {
			targets = notify.WithoutEmailChannels(targets)
		}
		h.dispatcher.TriggerChannels(c.Context(), notify.EventAlertTriggered, notify.AlertEventData(ev), targets)
	}

	if events == nil {
		events = []model.AlertEvent{}
	}
	return c.JSON(fiber.Map{"data": events, "triggered": len(events)})
}

// --- Webhook channels ---

func (h *Handler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.channels.List(c.Context())
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	if channels == nil {
		channels = []model.WebhookConfig{}
	}
	return c.JSON(fiber.Map{"data": channels})
}

func (h *Handler) GetChannel(c *fiber.Ctx) error {
	ch, err := h.channels.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapChannelError(err, c.Params("id"))
	}
	return c.JSON(fiber.Map{"data": ch})
}

func (h *Handler) CreateChannel(c *fiber.Ctx) error {
	var cfg model.WebhookConfig
	if err := c.BodyParser(&cfg); err != nil {
		return BadRequestError("invalid request body")
	}

	created, err := h.channels.Create(c.Context(), cfg)
	if err != nil {
		return mapChannelError(err, cfg.ID)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

func (h *Handler) UpdateChannel(c *fiber.Ctx) error {
	var upd model.WebhookConfigUpdate
	if err := c.BodyParser(&upd); err != nil {
		return BadRequestError("invalid request body")
	}

	ch, err := h.channels.Update(c.Context(), c.Params("id"), upd)
	if err != nil {
		return mapChannelError(err, c.Params("id"))
	}
	return c.JSON(fiber.Map{"data": ch})
}

func (h *Handler) DeleteChannel(c *fiber.Ctx) error {
	ok, err := h.channels.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if !ok {
		return NotFoundError("channel", c.Params("id"))
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// TestChannel fires a synthetic event at a single channel, retries included.
func (h *Handler) TestChannel(c *fiber.Ctx) error {
	ch, err := h.channels.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapChannelError(err, c.Params("id"))
	}

	result := h.dispatcher.SendWithRetry(c.Context(), ch, notify.EventWebhookTest, map[string]any{
		"message": "test delivery",
	})
	return c.JSON(fiber.Map{"data": result})
}

// --- Deliveries ---

func (h *Handler) ListDeliveries(c *fiber.Ctx) error {
	logs, err := h.dispatcher.Logs(c.Context())
	if err != nil {
		return fmt.Errorf("list deliveries: %w", err)
	}
	if logs == nil {
		logs = []model.WebhookLog{}
	}
	return c.JSON(fiber.Map{"data": logs})
}

func mapAlertError(err error, kind, id string) error {
	if errors.Is(err, alert.ErrNotFound) {
		return NotFoundError(kind, id)
	}
	if errors.Is(err, alert.ErrInvalid) {
		return ValidationError(err.Error())
	}
	return err
}

func mapChannelError(err error, id string) error {
	if errors.Is(err, notify.ErrChannelNotFound) {
		return NotFoundError("channel", id)
	}
	if errors.Is(err, notify.ErrInvalidChannel) {
		return ValidationError(err.Error())
	}
	return err
}
