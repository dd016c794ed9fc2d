// Package processor applies catalog sync messages to the local catalog.
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/justin-dews/data-matcher-sub001/internal/repositories/catalogentry"
	"github.com/justin-dews/data-matcher-sub001/pkg/kafka"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

// Processor keeps the local catalog in step with the catalog service's
// change stream.
type Processor struct {
	entries *catalogentry.Repository
	logger  ectologger.Logger
}

// NewProcessor creates a new catalog sync processor
func NewProcessor(entries *catalogentry.Repository, logger ectologger.Logger) *Processor {
	return &Processor{
		entries: entries,
		logger:  logger,
	}
}

// ProcessMessage handles an incoming Kafka message
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.ProcessMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"key":    msg.Key,
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	if msg.CatalogSync == nil {
		if err := msg.ParseCatalogSync(); err != nil {
			log.WithError(err).Error("Failed to parse catalog sync message")
			return err
		}
	}

	tenantID := msg.GetTenantID()
	if tenantID == "" {
		log.Error("Missing tenant_id in message")
		return nil // skip, retrying will not help
	}
	if msg.CatalogSync.SKU == "" {
		log.Error("Missing sku in catalog sync message")
		return nil
	}

	log = log.WithFields(map[string]any{
		"tenant_id": tenantID,
		"sku":       msg.CatalogSync.SKU,
	})

	switch {
	case msg.IsDelete():
		return p.processDelete(ctx, tenantID, msg.CatalogSync, log)
	case msg.IsUpsert():
		return p.processUpsert(ctx, tenantID, msg.CatalogSync, log)
	default:
		log.WithFields(map[string]any{"action": msg.CatalogSync.Action}).Error("Unknown catalog sync action")
		return nil // skip, retrying will not help
	}
}

func (p *Processor) processUpsert(ctx context.Context, tenantID string, sync *kafka.CatalogSyncMessage, log ectologger.Logger) error {
	ctx, span := tracing.StartSpan(ctx, "processor.processUpsert")
	defer span.End()

	entry := &models.CatalogEntry{
		TenantID:     tenantID,
		SKU:          sync.SKU,
		Name:         sync.Name,
		Manufacturer: sync.Manufacturer,
		Category:     sync.Category,
		Embedding:    sync.Embedding,
	}

	if _, err := p.entries.Upsert(ctx, entry); err != nil {
		log.WithError(err).Error("Failed to upsert catalog entry")
		return err
	}

	log.Debug("Synced catalog entry")
	return nil
}

func (p *Processor) processDelete(ctx context.Context, tenantID string, sync *kafka.CatalogSyncMessage, log ectologger.Logger) error {
	ctx, span := tracing.StartSpan(ctx, "processor.processDelete")
	defer span.End()

	entry, err := p.entries.GetBySKU(ctx, tenantID, sync.SKU)
	if err != nil {
		// Deleting an entry we never had is a no-op, not a failure.
		log.WithError(err).Warn("Catalog entry to delete not found")
		return nil
	}

	if err := p.entries.Delete(ctx, tenantID, entry.ID); err != nil {
		log.WithError(err).Error("Failed to delete catalog entry")
		return err
	}

	log.Info("Deleted catalog entry")
	return nil
}
