package mail

import (
	"context"
	"fmt"
	"html"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if host == "" {
		return fmt.Errorf("SMTP_HOST is not configured")
	}
	if sender == "" {
		sender = "no-reply@localhost"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	msg := buildMessage(sender, to, subject, body)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Errorf("[Mail] SMTP send error: %v", err)
	} else {
		log.Infof("[Mail] Email sent to %s via %s", to, addr)
	}
	return err
}

func buildMessage(sender, to, subject, body string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)
}

// PaymentConfirmationMailer tells attendees that their registration is paid.
type PaymentConfirmationMailer struct {
	send func(to, subject, body string) error
}

func NewPaymentConfirmationMailer() *PaymentConfirmationMailer {
	return &PaymentConfirmationMailer{send: SendMail}
}

func (m *PaymentConfirmationMailer) SendPaymentConfirmation(ctx context.Context, reg *models.Registration, vp payment.VerifiedPayment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.send(reg.Email, "Your registration is confirmed", confirmationBody(reg, vp))
}

func confirmationBody(reg *models.Registration, vp payment.VerifiedPayment) string {
	name := reg.Name
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>we received your payment of %s %s for order <strong>%s</strong>. Your registration is confirmed.</p><p>Reference: %s</p>",
		html.EscapeString(name),
		vp.Amount.StringFixed(2),
		html.EscapeString(vp.Currency),
		html.EscapeString(reg.OrderID),
		html.EscapeString(vp.InvoiceID),
	)
}
