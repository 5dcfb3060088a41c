package event

import (
	"context"
	"log/slog"
)

// LogPublisher writes notifications to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With(slog.String("component", "logPublisher"))}
}

func (p *LogPublisher) Publish(ctx context.Context, n Notification) error {
	p.logger.InfoContext(ctx, "Notification", "kind", n.Kind, "recipient", n.Recipient, "payload", n.Payload)
	return nil
}
