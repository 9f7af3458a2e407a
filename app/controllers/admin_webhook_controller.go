package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/internal/pkg/callbackurl"
	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
	"github.com/ManuelReschke/EventFox/internal/pkg/webhookdiag"
	"github.com/ManuelReschke/EventFox/internal/pkg/webhookmonitor"
)

const (
	defaultMetricsHours   = 24
	maxMetricsHours       = 24 * 30
	defaultRetentionDays  = 30
	adminOperationTimeout = 20 * time.Second
)

// WebhookEventPurger deletes old webhook log rows.
type WebhookEventPurger interface {
	PurgeWebhookEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// AdminWebhookController serves the operator API for webhook monitoring and diagnostics.
type AdminWebhookController struct {
	monitor     *webhookmonitor.Monitor
	resolver    *callbackurl.Resolver
	diagnostics *webhookdiag.Diagnostics
	purger      WebhookEventPurger
}

func NewAdminWebhookController(monitor *webhookmonitor.Monitor, resolver *callbackurl.Resolver, diagnostics *webhookdiag.Diagnostics, purger WebhookEventPurger) *AdminWebhookController {
	return &AdminWebhookController{
		monitor:     monitor,
		resolver:    resolver,
		diagnostics: diagnostics,
		purger:      purger,
	}
}

func (ac *AdminWebhookController) HandleMetrics(c *fiber.Ctx) error {
	hours := defaultMetricsHours
	if raw := strings.TrimSpace(c.Query("hours")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxMetricsHours {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_hours",
				"message": "hours must be between 1 and " + strconv.Itoa(maxMetricsHours),
			})
		}
		hours = n
	}

	snap, err := ac.monitor.Metrics(c.UserContext(), hours)
	if err != nil {
		log.Errorf("[WebhookMonitor] Loading metrics failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics_unavailable"})
	}
	return c.JSON(snap)
}

func (ac *AdminWebhookController) HandleHealth(c *fiber.Ctx) error {
	health, err := ac.monitor.Health(c.UserContext())
	if err != nil {
		log.Errorf("[WebhookMonitor] Loading health failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics_unavailable"})
	}
	return c.JSON(health)
}

func (ac *AdminWebhookController) HandleReset(c *fiber.Ctx) error {
	if err := ac.monitor.Reset(c.UserContext()); err != nil {
		log.Errorf("[WebhookMonitor] Reset failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reset_failed"})
	}
	log.Infof("[WebhookMonitor] Metrics reset by %s", c.IP())
	return c.JSON(fiber.Map{"ok": true})
}

func (ac *AdminWebhookController) HandleURL(c *fiber.Ctx) error {
	resolved, err := ac.resolver.ResolveSource(c.UserContext())
	if err != nil {
		return c.Status(payment.HTTPStatus(err)).JSON(fiber.Map{
			"error":       payment.Kind(err),
			"message":     err.Error(),
			"environment": ac.resolver.Environment().String(),
		})
	}
	return c.JSON(fiber.Map{
		"webhook_url": resolved.URL,
		"source":      resolved.Source,
		"environment": ac.resolver.Environment().String(),
	})
}

type validateURLRequest struct {
	URL   string `json:"url"`
	Probe bool   `json:"probe"`
}

func (ac *AdminWebhookController) HandleValidateURL(c *fiber.Ctx) error {
	var req validateURLRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		return c.Status(payment.HTTPStatus(payment.ErrInvalidURLFormat)).JSON(fiber.Map{
			"error":   payment.Kind(payment.ErrInvalidURLFormat),
			"message": "url is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), adminOperationTimeout)
	defer cancel()

	res := ac.resolver.Validate(ctx, req.URL, req.Probe)
	if !res.Valid {
		return c.Status(payment.HTTPStatus(payment.ErrInvalidURLFormat)).JSON(res)
	}
	return c.JSON(res)
}

func (ac *AdminWebhookController) HandleTest(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), adminOperationTimeout)
	defer cancel()

	access, payload, err := ac.diagnostics.TestAccessibility(ctx)
	if err != nil {
		return c.Status(payment.HTTPStatus(err)).JSON(fiber.Map{
			"error":   payment.Kind(err),
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"webhook_url":   access.URL,
		"accessibility": access,
		"payload_test":  payload,
		"success":       access.Accessible && payload.Success,
	})
}

func (ac *AdminWebhookController) HandleDiagnostics(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), adminOperationTimeout)
	defer cancel()
	return c.JSON(ac.diagnostics.Run(ctx))
}

func (ac *AdminWebhookController) HandleTestConnection(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), adminOperationTimeout)
	defer cancel()
	return c.JSON(ac.diagnostics.TestConnection(ctx))
}

func (ac *AdminWebhookController) HandlePurgeEvents(c *fiber.Ctx) error {
	days := c.QueryInt("days", defaultRetentionDays)
	if days < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_days"})
	}
	if ac.purger == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "event_log_unavailable"})
	}

	deleted, err := ac.purger.PurgeWebhookEvents(c.UserContext(), time.Duration(days)*24*time.Hour)
	if err != nil {
		log.Errorf("[PaymentWebhook] Purging webhook events failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "purge_failed"})
	}
	log.Infof("[PaymentWebhook] Purged %d webhook events older than %d days", deleted, days)
	return c.JSON(fiber.Map{"ok": true, "deleted": deleted, "retention_days": days})
}

// HandlePrometheus exposes the webhook counters in Prometheus text format.
func (ac *AdminWebhookController) HandlePrometheus(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4; charset=utf-8")
	ac.monitor.WritePrometheus(c.Response().BodyWriter())
	return nil
}
