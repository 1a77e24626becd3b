package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	api.Get("/thresholds", h.ListThresholds)
	api.Post("/thresholds", h.CreateThreshold)
	api.Post("/thresholds/reset", h.ResetThresholds)
	api.Get("/thresholds/:id", h.GetThreshold)
	api.Put("/thresholds/:id", h.UpdateThreshold)
	api.Delete("/thresholds/:id", h.DeleteThreshold)

	api.Get("/alerts", h.ListAlerts)
	api.Get("/alerts/summary", h.AlertSummary)
	api.Post("/alerts/ack-all", h.AcknowledgeAll)
	api.Post("/alerts/:id/ack", h.AcknowledgeAlert)

	api.Post("/metrics/evaluate", h.EvaluateMetrics)

	api.Get("/channels", h.ListChannels)
	api.Post("/channels", h.CreateChannel)
	api.Get("/channels/:id", h.GetChannel)
	api.Put("/channels/:id", h.UpdateChannel)
	api.Delete("/channels/:id", h.DeleteChannel)
	api.Post("/channels/:id/test", h.TestChannel)

	api.Get("/deliveries", h.ListDeliveries)
}
