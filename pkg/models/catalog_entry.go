// Package models contains the data types shared across the matcher
package models

import (
	"time"

	"github.com/lib/pq"
)

// CatalogEntry is a product in the internal catalog. Entries are read-only
// from the matcher's perspective; catalog management owns their lifecycle.
type CatalogEntry struct {
	ID           string          `db:"id" json:"id"`
	TenantID     string          `db:"tenant_id" json:"tenant_id"`
	SKU          string          `db:"sku" json:"sku"`
	Name         string          `db:"name" json:"name"`
	Manufacturer string          `db:"manufacturer" json:"manufacturer,omitempty"`
	Category     string          `db:"category" json:"category,omitempty"`
	// Embedding is precomputed by the ingestion pipeline. Nil when the
	// entry has not been embedded yet.
	Embedding pq.Float64Array `db:"embedding" json:"-"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// HasEmbedding reports whether a vector is attached to the entry.
func (e *CatalogEntry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}
