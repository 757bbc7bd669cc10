package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/mailcycle/internal/model"
	"github.com/edvin/mailcycle/internal/platform"
)

// AuditService writes audit trail entries. Callers treat audit failures as
// non-fatal: the business operation has already committed.
type AuditService struct {
	db     DB
	logger zerolog.Logger
}

func NewAuditService(db DB, logger zerolog.Logger) *AuditService {
	return &AuditService{db: db, logger: logger}
}

// Record inserts one audit entry. actor is nil for system-initiated
// actions (scheduled syncs, purge jobs).
func (s *AuditService) Record(ctx context.Context, action string, actor *string, targetType, targetID string, details map[string]any) error {
	payload := []byte("{}")
	if details != nil {
		var err error
		payload, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (id, actor, action, target_type, target_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		platform.NewID(), actor, action, targetType, targetID, payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List returns recent audit entries, newest first, optionally filtered by
// action and target.
func (s *AuditService) List(ctx context.Context, action, targetID string, limit int) ([]model.AuditLog, error) {
	query := `SELECT id, actor, action, target_type, target_id, details, created_at
		FROM audit_logs WHERE 1=1`
	args := []any{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(` AND action = $%d`, argIdx)
		args = append(args, action)
		argIdx++
	}
	if targetID != "" {
		query += fmt.Sprintf(` AND target_id = $%d`, argIdx)
		args = append(args, targetID)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		var l model.AuditLog
		err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.TargetType, &l.TargetID, &l.Details, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// record logs and swallows audit errors for callers that must not fail on
// a missing trail entry.
func (s *AuditService) record(ctx context.Context, action string, actor *string, targetType, targetID string, details map[string]any) {
	if err := s.Record(ctx, action, actor, targetType, targetID, details); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
