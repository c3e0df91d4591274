package out

import "context"

// ChatMessage is a rendered message for a chat channel. Topic selects a
// forum sub-thread family; the adapter resolves it to a thread id from
// settings and retries without the thread when the thread is missing.
type ChatMessage struct {
	ChatID string
	Text   string
	Topic  string
}

// ChatNotifier sends a rendered message to a chat channel.
type ChatNotifier interface {
	Send(ctx context.Context, msg *ChatMessage) error
}

// EmailMessage is a rendered HTML email for a recipient list.
type EmailMessage struct {
	To      []string
	Subject string
	HTML    string
}

// EmailNotifier sends a rendered email.
type EmailNotifier interface {
	Send(ctx context.Context, msg *EmailMessage) error
}
