package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ConsoleMailer logs messages instead of sending them. Used in development
// and tests; every delivered message is kept for inspection.
type ConsoleMailer struct {
	logger zerolog.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(logger zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Deliver(_ context.Context, msg Message) error {
	m.logger.Info().
		Str("template", msg.Template).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("bytes", len(msg.HTML)).
		Msg("email (console)")

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every delivered message.
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
