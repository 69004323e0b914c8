// Package maintenance renders the service-unavailable page shown to
// non-administrators while maintenance mode is active.
package maintenance

import (
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"
)

// DefaultMessage is shown when no custom maintenance message is stored.
const DefaultMessage = "The application is under maintenance. Please try again later."

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Maintenance</title></head>
<body>
<h1>Maintenance in progress</h1>
<p>%s</p>
</body>
</html>`

// Render writes the maintenance page with status 503. An empty message falls
// back to DefaultMessage.
func Render(c *fiber.Ctx, message string) error {
	if message == "" {
		message = DefaultMessage
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.Status(fiber.StatusServiceUnavailable).
		SendString(fmt.Sprintf(pageTemplate, html.EscapeString(message)))
}
