// Package queue defines the catalog event payloads exchanged over the
// message broker, a best-effort publisher and a background consumer.
package queue

// CatalogQueueName is the durable queue carrying product change events.
const CatalogQueueName = "catalog.events"

// ProductEvent is published whenever a product is created, updated or
// soft-deleted.  It carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary database.
// Delete events only populate Action, ProductID and OccurredAt.
type ProductEvent struct {
	Action     string `json:"action"` // created | updated | deleted
	ProductID  uint64 `json:"product_id"`
	Name       string `json:"name,omitempty"`
	SKU        string `json:"sku,omitempty"`
	PriceCents uint64 `json:"price_cents,omitempty"`
	Category   string `json:"category,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
