package models

import (
	"time"

	"github.com/justin-dews/data-matcher-sub001/pkg/database"
)

// DecisionOutcome is the reviewer's verdict on a candidate match
type DecisionOutcome string

const (
	DecisionApproved DecisionOutcome = "approved"
	DecisionRejected DecisionOutcome = "rejected"
)

// MatchDecision is the audit record of a human review action. Approved
// decisions also feed the training corpus; rejected ones are audit-only.
type MatchDecision struct {
	ID             string                       `db:"id" json:"id"`
	TenantID       string                       `db:"tenant_id" json:"tenant_id"`
	QueryText      string                       `db:"query_text" json:"query_text"`
	NormalizedText string                       `db:"normalized_text" json:"normalized_text"`
	EntryID        string                       `db:"entry_id" json:"entry_id"`
	Decision       DecisionOutcome              `db:"decision" json:"decision"`
	FinalScore     float64                      `db:"final_score" json:"final_score"`
	Scores         database.JSONB[SignalScores] `db:"scores" json:"scores"`
	Tier           MatchTier                    `db:"tier" json:"tier"`
	Reviewer       string                       `db:"reviewer" json:"reviewer"`
	CreatedAt      time.Time                    `db:"created_at" json:"created_at"`
}
