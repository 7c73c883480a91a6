// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// Template kinds understood by the email worker.
const (
	TemplateWelcome        = "welcome"
	TemplatePasswordReset  = "password-reset"
	TemplateBookingCreated = "booking-created"
)

// EmailRequestedEvent is published whenever the application needs to notify
// a user: after sign-up, on password-reset requests (URL carries the
// plaintext reset token) and after a booking is created. It contains enough
// information for the worker to render and send the message without
// querying the primary database.
type EmailRequestedEvent struct {
	To          string `json:"to"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Template    string `json:"template"`
	RequestedAt string `json:"requested_at"`
}
