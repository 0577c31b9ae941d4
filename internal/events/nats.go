package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// subjectPrefix namespaces catalog events on the broker, e.g.
// alder.product.created.
const subjectPrefix = "alder."

// NATSPublisher publishes product events to a NATS broker.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher connects to the broker at url. The connection
// reconnects indefinitely; publishes during an outage are buffered by
// the client and dropped if the buffer overflows, which is acceptable
// for refresh notifications.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("alder-catalog"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{
		conn:   conn,
		logger: logger,
	}, nil
}

// Publish emits the event on its type subject. Errors are logged and
// swallowed: event delivery is best-effort by contract.
func (p *NATSPublisher) Publish(event ProductEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode product event",
			slog.String("type", event.Type),
			slog.String("product_id", event.ProductID),
			slog.String("error", err.Error()))
		return
	}

	if err := p.conn.Publish(subjectPrefix+event.Type, payload); err != nil {
		p.logger.Warn("failed to publish product event",
			slog.String("type", event.Type),
			slog.String("product_id", event.ProductID),
			slog.String("error", err.Error()))
	}
}

// Close drains the connection so buffered events flush on shutdown.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain nats connection", slog.String("error", err.Error()))
	}
}
