package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of sending them. It is used when
// notifications are disabled and keeps the last messages for inspection.
type LogSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs msg.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	s.logger.Info("duty notice",
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	if len(s.sent) > 100 {
		s.sent = s.sent[len(s.sent)-100:]
	}
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
