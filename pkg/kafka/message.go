package kafka

import (
	"encoding/json"
	"time"
)

// CatalogSyncMessage is one catalog change emitted by the catalog service.
// Action is "upsert" or "delete".
type CatalogSyncMessage struct {
	Action       string    `json:"action"`
	TenantID     string    `json:"tenant_id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Category     string    `json:"category,omitempty"`
	Embedding    []float64 `json:"embedding,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	CatalogSync *CatalogSyncMessage
}

// ParseCatalogSync parses the message value as a catalog sync event
func (m *IncomingMessage) ParseCatalogSync() error {
	var msg CatalogSyncMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return err
	}
	m.CatalogSync = &msg
	return nil
}

// GetTenantID returns the tenant ID from the message, falling back to the
// header when the payload omits it.
func (m *IncomingMessage) GetTenantID() string {
	if m.CatalogSync != nil && m.CatalogSync.TenantID != "" {
		return m.CatalogSync.TenantID
	}
	return m.Headers["tenant_id"]
}

// IsUpsert returns true when the message carries a catalog entry to store
func (m *IncomingMessage) IsUpsert() bool {
	return m.CatalogSync != nil && (m.CatalogSync.Action == "upsert" || m.CatalogSync.Action == "")
}

// IsDelete returns true when the message removes a catalog entry
func (m *IncomingMessage) IsDelete() bool {
	return m.CatalogSync != nil && m.CatalogSync.Action == "delete"
}
