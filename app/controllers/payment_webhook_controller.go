package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
)

const webhookRequestTimeout = 15 * time.Second

// PaymentWebhookController receives provider notifications.
type PaymentWebhookController struct {
	reconciler *payment.Reconciler
}

func NewPaymentWebhookController(reconciler *payment.Reconciler) *PaymentWebhookController {
	return &PaymentWebhookController{reconciler: reconciler}
}

// HandleWebhook answers with the status the provider's retry logic expects:
// 2xx done, 4xx do not retry, 5xx retry later.
func (pc *PaymentWebhookController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	notification := payment.WebhookNotification{
		RawPayload: rawBody,
		Signature:  strings.TrimSpace(c.Get(payment.SignatureHeader)),
		DeliveryID: firstHeaderValue(c, "X-Webhook-Delivery", "X-Webhook-Id", "X-Request-Id"),
		ReceivedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookRequestTimeout)
	defer cancel()

	res := pc.reconciler.HandleNotification(ctx, notification)
	if res.Err != nil {
		return c.Status(res.HTTPStatus).JSON(fiber.Map{"error": payment.Kind(res.Err)})
	}

	body := fiber.Map{"ok": true}
	if res.Test {
		body["test"] = true
		return c.Status(res.HTTPStatus).JSON(body)
	}
	body["duplicate"] = res.Duplicate
	body["applied"] = res.Applied
	body["status"] = res.Status
	return c.Status(res.HTTPStatus).JSON(body)
}
