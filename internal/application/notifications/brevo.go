package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// BrevoClient emails the owner through the Brevo (Sendinblue) API.
// An empty APIKey or recipient turns every call into a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@cottage-bookings.local"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) Notify(ctx context.Context, ev Event) error {
	if c.APIKey == "" || ev.OwnerEmail == "" {
		return nil
	}
	subject, content := render(ev)
	if subject == "" {
		return nil
	}
	return c.send(ctx, ev.OwnerEmail, ev.OwnerName, subject, EmailLayout(content))
}

func (c *BrevoClient) send(ctx context.Context, toEmail, toName, subject, html string) error {
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "Cottage Bookings"},
		To:          []BrevoContact{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func render(ev Event) (string, string) {
	name := ev.OwnerName
	if name == "" {
		name = "there"
	}
	stay := fmt.Sprintf("%s to %s", ev.CheckIn, ev.CheckOut)
	if ev.CottageCode != "" {
		stay = fmt.Sprintf("cottage %s, %s", EscapeHTML(ev.CottageCode), stay)
	}
	notes := ""
	if ev.Notes != "" {
		notes = fmt.Sprintf("<p><strong>Notes:</strong> %s</p>", EscapeHTML(ev.Notes))
	}

	switch ev.Kind {
	case BookingApproved:
		return "Your booking is confirmed", fmt.Sprintf(`
    <h1>Booking confirmed</h1>
    <p>Hi %s,</p>
    <p>Your stay (%s) has been approved. %d weekday and %d weekend credits were used.</p>
    %s`, EscapeHTML(name), stay, ev.WeekdayCredits, ev.WeekendCredits, notes)
	case BookingRejected:
		return "Your booking request was declined", fmt.Sprintf(`
    <h1>Booking declined</h1>
    <p>Hi %s,</p>
    <p>Your request for %s was not approved. The escrowed credits have been returned to your balance.</p>
    %s`, EscapeHTML(name), stay, notes)
	case BookingRevoked:
		return "Your booking was cancelled by an administrator", fmt.Sprintf(`
    <h1>Booking cancelled</h1>
    <p>Hi %s,</p>
    <p>Your booking for %s was cancelled by an administrator. %d weekday and %d weekend credits have been refunded.</p>
    %s`, EscapeHTML(name), stay, ev.WeekdayCredits, ev.WeekendCredits, notes)
	}
	return "", ""
}
