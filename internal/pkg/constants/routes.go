package constants

// Route constants shared by router, resolver and docs
const (
	PaymentWebhookRoute = "/webhooks/payment"
	AdminAPIRoute       = "/admin/api"
	WebhookMetricsRoute = "/metrics/webhooks"
	DocsRoute           = "/docs/api/"
)
