package engine

import "github.com/gofiber/fiber/v2"

func RegisterDecisionRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Post("/permissions/check", h.Check)
	api.Post("/permissions/field-access", h.FieldAccess)
	api.Get("/me/permissions", h.Me)
	api.Get("/regions", h.Regions)
	api.Get("/fields/contexts", h.Contexts)
	api.Post("/fields/resolve", h.ResolveFields)
}
