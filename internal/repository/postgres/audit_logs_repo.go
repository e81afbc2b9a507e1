package postgres

import (
	"context"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/google/uuid"
)

type auditLogsRepo struct{ db querier }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := conn(ctx, r.db).Exec(ctx,
		`INSERT INTO audit_logs(id, entity_type, entity_id, action, details) VALUES($1,$2,$3,$4,$5)`,
		l.ID, l.EntityType, l.EntityID, l.Action, l.Details)
	return err
}
