package controllers

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/cache"
	"github.com/ManuelReschke/EventFox/internal/pkg/callbackurl"
	"github.com/ManuelReschke/EventFox/internal/pkg/database"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/mail"
	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
	"github.com/ManuelReschke/EventFox/internal/pkg/webhookdiag"
	"github.com/ManuelReschke/EventFox/internal/pkg/webhookmonitor"
)

// Global webhook controller instances
var (
	paymentWebhookController *PaymentWebhookController
	adminWebhookController   *AdminWebhookController
	webhookControllersOnce   sync.Once
)

// InitializeWebhookControllers wires the webhook pipeline from env, database and cache.
// Both controllers share one monitor; repeated calls are no-ops.
func InitializeWebhookControllers() {
	webhookControllersOnce.Do(initializeWebhookControllers)
}

func initializeWebhookControllers() {
	environment := env.Detect()

	defaults := payment.DefaultSettingsFromEnv()
	models.SetPaymentSettings(defaults)
	if db := database.GetDB(); db != nil {
		if err := models.LoadPaymentSettings(db, defaults); err != nil {
			log.Warnf("[PaymentWebhook] Using env payment settings: %v", err)
		}
	}

	monitor := webhookmonitor.New(newMonitorStore(), webhookmonitor.Config{})
	provider := payment.NewProviderClientFromEnv()
	svc := payment.NewServiceFromDB(database.GetDB(), mail.NewPaymentConfirmationMailer(), "")

	reconciler := payment.NewReconciler(payment.ReconcilerConfig{
		Provider: provider,
		Applier:  svc,
		Recorder: monitor,
		EventLog: svc,
		Settings: payment.CurrentSettings,
		Policy:   payment.PolicyFor(environment),
	})

	resolver := callbackurl.NewResolver(callbackurl.ConfigFromEnv(func() string {
		return models.GetPaymentSettings().WebhookURL
	}))
	diagnostics := webhookdiag.New(webhookdiag.Config{
		Resolver:           resolver,
		Settings:           models.GetPaymentSettings,
		Provider:           provider,
		ProviderConfigured: provider.Configured,
	})

	paymentWebhookController = NewPaymentWebhookController(reconciler)
	adminWebhookController = NewAdminWebhookController(monitor, resolver, diagnostics, svc)
	log.Infof("[PaymentWebhook] Initialized for %s environment", environment)
}

func newMonitorStore() webhookmonitor.Store {
	if env.GetEnv("MONITOR_STORE", "memory") != "redis" {
		return webhookmonitor.NewMemoryStore()
	}
	return webhookmonitor.NewRedisStore(cache.GetClient(), "")
}

func GetPaymentWebhookController() *PaymentWebhookController {
	InitializeWebhookControllers()
	return paymentWebhookController
}

func GetAdminWebhookController() *AdminWebhookController {
	InitializeWebhookControllers()
	return adminWebhookController
}

// Adapter functions for the router

func HandlePaymentWebhook(c *fiber.Ctx) error {
	return GetPaymentWebhookController().HandleWebhook(c)
}

func HandleAdminWebhookMetrics(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleMetrics(c)
}

func HandleAdminWebhookHealth(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleHealth(c)
}

func HandleAdminWebhookTest(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleTest(c)
}

func HandleAdminWebhookDiagnostics(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleDiagnostics(c)
}

func HandleAdminWebhookReset(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleReset(c)
}

func HandleAdminWebhookValidateURL(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleValidateURL(c)
}

func HandleAdminWebhookURL(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleURL(c)
}

func HandleAdminWebhookTestConnection(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandleTestConnection(c)
}

func HandleAdminWebhookPurgeEvents(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandlePurgeEvents(c)
}

func HandleWebhookPrometheus(c *fiber.Ctx) error {
	return GetAdminWebhookController().HandlePrometheus(c)
}
