package events

import (
	"context"

	"github.com/charmbracelet/log"
)

// LogPublisher writes each event as a log line
type LogPublisher struct {
	logger *log.Logger
}

// NewLogPublisher creates a publisher logging through logger
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.WithPrefix("events")}
}

// Publish logs e at info level, or debug for per-action detail
func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	keyvals := []any{"table", e.TableID, "kind", e.Kind}
	if e.Hand > 0 {
		keyvals = append(keyvals, "hand", e.Hand)
	}

	switch e.Kind {
	case KindPlayerActioned, KindBlindPosted:
		p.logger.Debug(e.String(), keyvals...)
	case KindActionTimeout:
		p.logger.Warn(e.String(), keyvals...)
	default:
		p.logger.Info(e.String(), keyvals...)
	}
	return nil
}
