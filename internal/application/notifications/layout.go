package notifications

import (
	"fmt"
	"strings"
	"time"
)

const (
	themePrimary = "#2F6B3A"
	themeText    = "#1F2937"
	themeBody    = "#F3F4F6"
)

// EmailLayout wraps content in the shared HTML shell.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .card { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; padding: 32px 48px; }
    .card h1 { color: %s; font-size: 22px; margin-top: 0; }
    .card p { font-size: 16px; line-height: 1.6; }
    .footer { text-align: center; color: #6B7280; font-size: 12px; }
  </style>
</head>
<body>
  <div class="card">%s</div>
  <p class="footer">&copy; %d Cottage Bookings</p>
</body>
</html>`, themeBody, themeText, themePrimary, contentHTML, time.Now().Year())
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
