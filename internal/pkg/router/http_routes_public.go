package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/EventFox/app/controllers"
	"github.com/ManuelReschke/EventFox/internal/pkg/cache"
	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

const defaultWebhookRateLimit = 120

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Payment provider webhooks (no auth, signature-verified in controller)
	app.Post(constants.PaymentWebhookRoute, webhookLimiter(), controllers.HandlePaymentWebhook)
}

// webhookLimiter caps deliveries per source IP. With RATE_LIMIT_STORE=redis
// the counters are shared across instances.
func webhookLimiter() fiber.Handler {
	limit, err := strconv.Atoi(env.GetEnv("WEBHOOK_RATE_LIMIT", strconv.Itoa(defaultWebhookRateLimit)))
	if err != nil || limit <= 0 {
		limit = defaultWebhookRateLimit
	}

	cfg := limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited"})
		},
	}
	if env.GetEnv("RATE_LIMIT_STORE", "memory") == "redis" {
		opts := cache.OptionsFromEnv()
		cfg.Storage = redis.New(redis.Config{
			Host:     opts.Host,
			Port:     opts.Port,
			Password: opts.Password,
			Database: 2, // cache uses DB 0
			Reset:    false,
		})
		log.Infof("[Router] Webhook rate limiter uses redis storage")
	}
	return limiter.New(cfg)
}
