package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/observability"
	"github.com/spinozarabel/headstart-admission/internal/webhook"
	"github.com/spinozarabel/headstart-admission/internal/workflow"
)

// WebhookHandler receives order notifications from the commerce site.
type WebhookHandler struct {
	verifier *webhook.Verifier
	engine   *workflow.Engine
	log      *zap.Logger
	metrics  *observability.Metrics
}

// NewWebhookHandler returns a new handler instance.
func NewWebhookHandler(verifier *webhook.Verifier, engine *workflow.Engine, log *zap.Logger, metrics *observability.Metrics) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, engine: engine, log: log, metrics: metrics}
}

// OrderCompleted handles POST /webhook/order-completed. The origin gate runs
// before the signature check; rejected deliveries get an empty 403 and no
// ticket is ever touched. A verified delivery with a foreign action is
// acknowledged without effect. Processing failures after verification are
// logged and still acknowledged, the sender is not asked to redeliver.
func (h *WebhookHandler) OrderCompleted(c *fiber.Ctx) error {
	remoteIP := c.IP()
	source := c.Get("X-Source")
	if !h.verifier.AllowOrigin(remoteIP, source) {
		h.metrics.WebhooksTotal.WithLabelValues("rejected_origin").Inc()
		h.log.Warn("webhook rejected by origin gate",
			zap.String("remote_ip", remoteIP), zap.String("source", source))
		return c.Status(fiber.StatusForbidden).Send(nil)
	}

	body := c.Body()
	if !h.verifier.VerifySignature(body, c.Get("X-Signature")) {
		h.metrics.WebhooksTotal.WithLabelValues("rejected_signature").Inc()
		h.log.Warn("webhook rejected by signature check", zap.String("remote_ip", remoteIP))
		return c.Status(fiber.StatusForbidden).Send(nil)
	}

	notification, err := webhook.Decode(body)
	if err != nil {
		h.metrics.WebhooksTotal.WithLabelValues("malformed").Inc()
		h.log.Warn("webhook payload malformed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).Send(nil)
	}

	if notification.Action != webhook.ActionOrderCompleted {
		h.metrics.WebhooksTotal.WithLabelValues("ignored").Inc()
		return c.Status(fiber.StatusOK).Send(nil)
	}

	if err := h.engine.ProcessOrderCompleted(c.UserContext(), notification.Arg); err != nil {
		h.metrics.WebhooksTotal.WithLabelValues("failed").Inc()
		h.log.Error("order completed processing failed",
			zap.String("order_arg", notification.Arg), zap.Error(err))
		return c.Status(fiber.StatusOK).Send(nil)
	}

	h.metrics.WebhooksTotal.WithLabelValues("processed").Inc()
	return c.Status(fiber.StatusOK).Send(nil)
}
