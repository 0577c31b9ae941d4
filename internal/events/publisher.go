package events

import (
	"time"
)

// Event types emitted by the catalog core. Consumers (dashboard
// refresh, blob cleanup) subscribe externally; delivery is best-effort.
const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
	TypeProductDeleted = "product.deleted"
)

// ProductEvent is the payload published for every product mutation.
// ImageURLs is populated on deletion so an external consumer can clean
// up blob storage; the core itself only cascades relational rows.
type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	ImageURLs []string  `json:"image_urls,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits product lifecycle events. Implementations must be
// fire-and-forget: a failed publish is logged, never propagated.
type Publisher interface {
	Publish(event ProductEvent)
	Close()
}

// NoopPublisher discards events. Used when no broker is configured and
// in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ProductEvent) {}
func (NoopPublisher) Close()               {}
