package engine

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hdcn-access/internal/auth"
	"hdcn-access/internal/metadata"
)

type Handler struct {
	decider *Decider
	fields  *FieldResolver
}

func NewHandler(d *Decider, fields *FieldResolver) *Handler {
	return &Handler{decider: d, fields: fields}
}

type checkRequest struct {
	Feature        string `json:"feature"`
	Action         string `json:"action"`
	Region         string `json:"region"`
	PermissionRole string `json:"permission_role"`
}

// Check handles POST /api/permissions/check. The body names either a
// feature and action, or a permission role; region is optional for both.
func (h *Handler) Check(c *fiber.Ctx) error {
	var body checkRequest
	if err := c.BodyParser(&body); err != nil {
		return BadRequestError("Invalid request body")
	}

	user := auth.GetUser(c)
	id := uuid.NewString()

	if body.PermissionRole != "" {
		dec := h.decider.ValidatePermissionWithRegion(user, body.PermissionRole, body.Region)
		return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "decision": dec}})
	}

	if body.Feature == "" {
		return BadRequestError("feature or permission_role is required")
	}
	action := metadata.Action(body.Action)
	if !action.Valid() {
		return BadRequestError("action must be read or write")
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":         id,
		"allowed":    h.decider.CheckUIPermission(user, body.Feature, action, body.Region),
		"has_access": h.decider.HasAccess(user, body.Feature, action),
	}})
}

type fieldAccessRequest struct {
	Feature string `json:"feature"`
	Action  string `json:"action"`
	FieldAccessContext
}

// FieldAccess handles POST /api/permissions/field-access.
func (h *Handler) FieldAccess(c *fiber.Ctx) error {
	var body fieldAccessRequest
	if err := c.BodyParser(&body); err != nil {
		return BadRequestError("Invalid request body")
	}
	action := metadata.Action(body.Action)
	if body.Feature == "" || !action.Valid() {
		return BadRequestError("feature and a read or write action are required")
	}

	allowed := h.decider.HasFieldAccess(auth.GetUser(c), body.Feature, action, body.FieldAccessContext)
	return c.JSON(fiber.Map{"data": fiber.Map{"allowed": allowed}})
}

// Me handles GET /api/me/permissions.
func (h *Handler) Me(c *fiber.Ctx) error {
	user := auth.GetUser(c)
	if user == nil {
		return UnauthorizedError("Missing auth token")
	}
	return c.JSON(fiber.Map{"data": h.decider.Summarize(user)})
}

// Regions handles GET /api/regions.
func (h *Handler) Regions(c *fiber.Ctx) error {
	regions := Regions()
	out := make([]fiber.Map, len(regions))
	for i, r := range regions {
		out[i] = fiber.Map{"id": r.ID, "name": r.Name, "role": r.Role, "legacy_id": r.LegacyID}
	}
	return c.JSON(fiber.Map{
		"data":       out,
		"accessible": AccessibleRegions(h.decider.Roles(auth.GetUser(c))),
	})
}

type resolveRequest struct {
	Context string         `json:"context"`
	Role    string         `json:"role"`
	Mode    string         `json:"mode"`
	Record  map[string]any `json:"record"`
	FieldAccess
}

// ResolveFields handles POST /api/fields/resolve. mode is view (default)
// or edit.
func (h *Handler) ResolveFields(c *fiber.Ctx) error {
	var body resolveRequest
	if err := c.BodyParser(&body); err != nil {
		return BadRequestError("Invalid request body")
	}
	if body.Context == "" || body.Role == "" {
		return BadRequestError("context and role are required")
	}

	resolve := h.fields.ResolveFieldsForContext
	switch body.Mode {
	case "", "view":
	case "edit":
		resolve = h.fields.EditableFieldsForContext
	default:
		return BadRequestError("mode must be view or edit")
	}

	fields, err := resolve(body.Context, body.Role, body.Record, body.FieldAccess)
	if err != nil {
		return err
	}
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return c.JSON(fiber.Map{"data": fields, "keys": keys})
}

// Contexts handles GET /api/fields/contexts.
func (h *Handler) Contexts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.fields.Catalog().ContextNames()})
}
