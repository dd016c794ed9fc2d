package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

// ProjectionService mirrors approved matches into the graph store as
// (:CompetitorItem)-[:MATCHES]->(:Product). The graph is a derived view used
// for cross-sell exploration; Postgres stays the source of truth.
type ProjectionService struct {
	client *Client
	logger ectologger.Logger
}

// NewProjectionService creates a new projection service
func NewProjectionService(client *Client, logger ectologger.Logger) *ProjectionService {
	return &ProjectionService{
		client: client,
		logger: logger,
	}
}

// ProjectApprovedMatch records an approved match edge. Replaying the same
// approval is idempotent; confidence only ever ratchets upward.
func (s *ProjectionService) ProjectApprovedMatch(ctx context.Context, tenantID string, competitorText string, entryID string, confidence float64) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ProjectionService.ProjectApprovedMatch")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"entry_id":  entryID,
	})

	cypher := `
		MERGE (c:CompetitorItem {text: $text, tenant_id: $tenant_id})
		MERGE (p:Product {id: $entry_id, tenant_id: $tenant_id})
		MERGE (c)-[m:MATCHES]->(p)
		ON CREATE SET m.confidence = $confidence, m.approvals = 1
		ON MATCH SET m.confidence = CASE WHEN $confidence > m.confidence THEN $confidence ELSE m.confidence END,
					 m.approvals = m.approvals + 1
		RETURN m
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"text":       competitorText,
			"tenant_id":  tenantID,
			"entry_id":   entryID,
			"confidence": confidence,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		log.WithError(err).Error("Failed to project approved match")
		return fmt.Errorf("failed to project approved match: %w", err)
	}

	log.Debug("Projected approved match")
	return nil
}

// CompetitorMatch is one projected edge read back from the graph.
type CompetitorMatch struct {
	CompetitorText string  `json:"competitor_text"`
	Confidence     float64 `json:"confidence"`
	Approvals      int64   `json:"approvals"`
}

// MatchesForProduct returns the competitor items known to map to a product,
// strongest first.
func (s *ProjectionService) MatchesForProduct(ctx context.Context, tenantID string, entryID string, limit int) ([]CompetitorMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.ProjectionService.MatchesForProduct")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 50
	}

	cypher := `
		MATCH (c:CompetitorItem {tenant_id: $tenant_id})-[m:MATCHES]->(p:Product {id: $entry_id, tenant_id: $tenant_id})
		RETURN c.text AS text, m.confidence AS confidence, m.approvals AS approvals
		ORDER BY m.confidence DESC, c.text ASC
		LIMIT $limit
	`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, cypher, map[string]any{
			"tenant_id": tenantID,
			"entry_id":  entryID,
			"limit":     limit,
		})
		if err != nil {
			return nil, err
		}

		var matches []CompetitorMatch
		for records.Next(ctx) {
			rec := records.Record()
			match := CompetitorMatch{}
			if v, ok := rec.Get("text"); ok {
				match.CompetitorText, _ = v.(string)
			}
			if v, ok := rec.Get("confidence"); ok {
				match.Confidence, _ = v.(float64)
			}
			if v, ok := rec.Get("approvals"); ok {
				match.Approvals, _ = v.(int64)
			}
			matches = append(matches, match)
		}
		return matches, records.Err()
	})

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to read matches for product")
		return nil, fmt.Errorf("failed to read matches for product: %w", err)
	}

	matches, _ := result.([]CompetitorMatch)
	return matches, nil
}

// RemoveProduct detaches and deletes a product node after the catalog entry
// is gone.
func (s *ProjectionService) RemoveProduct(ctx context.Context, tenantID string, entryID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ProjectionService.RemoveProduct")
	defer span.End()

	cypher := `
		MATCH (p:Product {id: $entry_id, tenant_id: $tenant_id})
		DETACH DELETE p
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"tenant_id": tenantID,
			"entry_id":  entryID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to remove product from graph")
		return fmt.Errorf("failed to remove product from graph: %w", err)
	}

	return nil
}
