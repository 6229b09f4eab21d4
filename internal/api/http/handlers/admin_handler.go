package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spinozarabel/headstart-admission/internal/workflow"
)

// AdminHandler exposes the error-recovery triggers to operators.
type AdminHandler struct {
	engine *workflow.Engine
}

// NewAdminHandler returns a new handler instance.
func NewAdminHandler(engine *workflow.Engine) *AdminHandler {
	return &AdminHandler{engine: engine}
}

// RetryAccountErrors handles POST /admin/retry/account-errors.
func (h *AdminHandler) RetryAccountErrors(c *fiber.Ctx) error {
	queued, err := h.engine.RetryAccountErrors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"queued": queued})
}

// RetryOrderErrors handles POST /admin/retry/order-errors.
func (h *AdminHandler) RetryOrderErrors(c *fiber.Ctx) error {
	queued, err := h.engine.RetryOrderErrors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"queued": queued})
}
