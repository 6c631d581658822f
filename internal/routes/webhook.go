package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/surgepay/surgepay/internal/engine"
	"github.com/surgepay/surgepay/internal/transport"
)

// RegisterWebhookRoutes adds the Twilio inbound message endpoint.
// Twilio retries non-2xx responses, so processing failures are logged
// and answered 200; the engine already apologized to the sender.
func RegisterWebhookRoutes(app *fiber.App, eng *engine.Engine, logger *slog.Logger) {
	app.Post("/webhook/whatsapp", func(c *fiber.Ctx) error {
		payload := transport.InboundPayload{
			From:          c.FormValue("From"),
			Body:          c.FormValue("Body"),
			ButtonText:    c.FormValue("ButtonText"),
			ButtonPayload: c.FormValue("ButtonPayload"),
			MessageStatus: c.FormValue("MessageStatus"),
		}
		in, ok := transport.ParseInbound(payload)
		if !ok {
			// Delivery receipt or empty message.
			return c.SendStatus(http.StatusOK)
		}

		if err := eng.HandleIncomingMessage(c.UserContext(), in); err != nil {
			logger.Error("webhook processing failed", "phone", in.Phone, "error", err)
		}
		return c.SendStatus(http.StatusOK)
	})
}
