package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes events as JSON on <prefix>.<table>.<kind>
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	logger *log.Logger
}

// ConnectNATS connects to the NATS server at url
func ConnectNATS(url, prefix string, logger *log.Logger) (*NATSPublisher, error) {
	logger = logger.WithPrefix("nats")

	nc, err := nats.Connect(url,
		nats.Name("pokertable"),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats server %s: %w", url, err)
	}

	logger.Debug("Connected to NATS", "url", url)
	return NewNATSPublisher(nc, prefix, logger), nil
}

// NewNATSPublisher publishes on an existing connection
func NewNATSPublisher(nc *nats.Conn, prefix string, logger *log.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix, logger: logger}
}

// Subject returns the subject an event is published on
func Subject(prefix string, e Event) string {
	return fmt.Sprintf("%s.%d.%s", prefix, e.TableID, e.Kind)
}

// Publish encodes e and publishes it
func (p *NATSPublisher) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := Subject(p.prefix, e)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	return nil
}
