package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"hdcn-access/internal/auth"
	"hdcn-access/internal/engine"
	"hdcn-access/internal/logging"
	"hdcn-access/internal/metadata"
	"hdcn-access/internal/params"
	"hdcn-access/internal/store"
)

// HistoryReader lists earlier versions of a parameter. *store.Store
// implements it.
type HistoryReader interface {
	ParameterHistory(ctx context.Context, key string, limit int) ([]store.Parameter, error)
}

type Handler struct {
	params  *params.Store
	history HistoryReader
	decider *engine.Decider
	logger  *zap.Logger
}

// NewHandler wires the parameter admin endpoints. history may be nil when no
// database is configured.
func NewHandler(p *params.Store, history HistoryReader, d *engine.Decider, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = logging.L().Named("admin")
	}
	return &Handler{params: p, history: history, decider: d, logger: logger}
}

func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	admin := app.Group("/api/admin/parameters", middleware...)

	admin.Get("/function-permissions", h.require(metadata.ActionRead), h.GetFunctionPermissions)
	admin.Put("/function-permissions", h.require(metadata.ActionWrite), h.PutFunctionPermissions)
	admin.Post("/function-permissions/refresh", h.require(metadata.ActionWrite), h.Refresh)
	admin.Get("/function-permissions/history", h.require(metadata.ActionRead), h.History)
}

// require gates a route on the parameters feature.
func (h *Handler) require(action metadata.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.GetUser(c)
		if user == nil {
			return engine.UnauthorizedError("Missing auth token")
		}
		if !h.decider.HasAccess(user, metadata.FeatureParameters, action) {
			return engine.ForbiddenError(fmt.Sprintf("No %s access to parameters", action))
		}
		return c.Next()
	}
}

func (h *Handler) GetFunctionPermissions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"effective": h.params.FunctionPermissions(c.UserContext()),
		"defaults":  metadata.DefaultFunctionPermissions(),
	}})
}

func (h *Handler) PutFunctionPermissions(c *fiber.Ctx) error {
	var override metadata.FunctionPermissions
	if err := c.BodyParser(&override); err != nil {
		return engine.BadRequestError("Invalid JSON body")
	}
	if override == nil {
		return engine.BadRequestError("Body must be a feature map")
	}
	if details := validateOverride(override); len(details) > 0 {
		return engine.ValidationError(details)
	}

	user := auth.GetUser(c)
	if err := h.params.Save(c.UserContext(), override, user.Username); err != nil {
		if errors.Is(err, params.ErrReadOnly) {
			return engine.NewAppError("READ_ONLY", fiber.StatusConflict, "No parameter store is configured")
		}
		return err
	}
	h.logger.Info("function permissions updated",
		zap.String("user", user.Username), zap.Int("features", len(override)))

	return c.JSON(fiber.Map{"data": h.params.FunctionPermissions(c.UserContext())})
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	if err := h.params.Refresh(c.UserContext()); err != nil {
		if errors.Is(err, params.ErrNoSource) {
			return engine.NewAppError("NO_SOURCE", fiber.StatusConflict, "No parameter source is configured")
		}
		return engine.NewAppError("REFRESH_FAILED", fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"data": h.params.FunctionPermissions(c.UserContext())})
}

func (h *Handler) History(c *fiber.Ctx) error {
	if h.history == nil {
		return engine.NewAppError("NOT_FOUND", fiber.StatusNotFound, "Parameter history requires a database")
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 200 {
		return engine.BadRequestError("limit must be between 1 and 200")
	}

	rows, err := h.history.ParameterHistory(c.UserContext(), params.Key, limit)
	if err != nil {
		return fmt.Errorf("parameter history: %w", err)
	}
	if rows == nil {
		rows = []store.Parameter{}
	}
	return c.JSON(fiber.Map{"data": rows})
}

var validate = validator.New()

// validateOverride checks feature names and role patterns. Details come out
// sorted by feature so responses are stable.
func validateOverride(override metadata.FunctionPermissions) []engine.ErrorDetail {
	features := make([]string, 0, len(override))
	for f := range override {
		features = append(features, f)
	}
	sort.Strings(features)

	var details []engine.ErrorDetail
	for _, feature := range features {
		if err := validate.Var(feature, "required,lowercase,excludesall= *"); err != nil {
			details = append(details, engine.ErrorDetail{
				Field: feature, Rule: "feature", Message: "feature must be a lower-case name",
			})
			continue
		}
		g := override[feature]
		for _, list := range [][]string{g.Read, g.Write} {
			for _, pattern := range list {
				if err := validate.Var(pattern, "required,printascii,excludesall= "); err != nil {
					details = append(details, engine.ErrorDetail{
						Field: feature, Rule: "role", Message: fmt.Sprintf("invalid role pattern %q", pattern),
					})
				}
			}
		}
	}
	return details
}
