// Package queue defines message payloads exchanged over the message broker
// and the background consumer that delivers them.
package queue

// Notification kinds routed through the e-mail queue.
const (
	KindPasswordReset = "password_reset"
	KindPriceAlert    = "price_alert"
)

// EmailNotification is published whenever the service needs to send mail:
// password reset links and price-drop alerts. The payload is complete enough
// for a consumer to deliver without querying the primary database. Reset
// tokens travel only inside this event, never in an API response.
type EmailNotification struct {
	Kind     string `json:"kind"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	QueuedAt string `json:"queued_at"`
}
