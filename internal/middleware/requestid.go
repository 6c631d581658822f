package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an identifier. Twilio retries
// failed webhook deliveries, so the id is always echoed on the
// response to let a retry be matched with its log lines.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Locals(requestIDHeader, id)

		return c.Next()
	}
}
