package models

import "time"

// AliasSource records how an alias came to exist
type AliasSource string

const (
	AliasSourceLearned AliasSource = "learned"
	AliasSourceManual  AliasSource = "manual"
)

// CompetitorAlias is a learned literal mapping from a competitor's name or
// SKU string to one catalog entry. Identity is (tenant, normalized_name,
// entry_id); confidence only ever ratchets upward on re-learning.
type CompetitorAlias struct {
	ID             string      `db:"id" json:"id"`
	TenantID       string      `db:"tenant_id" json:"tenant_id"`
	NormalizedName string      `db:"normalized_name" json:"normalized_name"`
	EntryID        string      `db:"entry_id" json:"entry_id"`
	Confidence     float64     `db:"confidence" json:"confidence"`
	Source         AliasSource `db:"source" json:"source"`
	CreatedBy      string      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}
