// Package audit appends entries to the audit_log table. Entries are written inside the
// transaction of the change they describe.
package audit

import (
	"context"
	"fmt"
	"time"

	"ms-backoffice/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionDeactivate = "deactivate"
	ActionPayment    = "payment"
)

type Trail struct {
	Bun *bun.DB
}

func New(db *bun.DB) *Trail {
	return &Trail{Bun: db}
}

// Record inserts an entry using idb, normally the caller's transaction.
func (t *Trail) Record(ctx context.Context, idb bun.IDB, action, entity, entityID string, actor int64, detail map[string]interface{}) error {
	if idb == nil {
		idb = t.Bun
	}
	entry := &models.AuditEntry{
		ID:        uuid.New(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Actor:     actor,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := idb.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("record audit %s %s %s: %w", action, entity, entityID, err)
	}
	return nil
}

// ForEntity lists the trail for one record, oldest first.
func (t *Trail) ForEntity(ctx context.Context, entity, entityID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := t.Bun.NewSelect().
		Model(&entries).
		Where("entity = ?", entity).
		Where("entity_id = ?", entityID).
		Order("created_at ASC").
		Scan(ctx)
	return entries, err
}
