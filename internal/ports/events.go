package ports

import "context"

// EventPublisher is the outbound domain-event publish port.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// MailMessage is a single plain-text email.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers out-of-band messages such as reset links.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
