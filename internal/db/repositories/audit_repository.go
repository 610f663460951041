// audit_repository.go implements AuditRepository, providing database queries for appending
// audit log entries and retrieving them with filters across entities and operators.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/config-registry/config-registry/internal/db/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const auditColumns = `id, entity_type, entity_id, operation, operator, comment, created_at`

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db sqlx.ExtContext
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db sqlx.ExtContext) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for querying audit logs
type AuditFilters struct {
	EntityType *string
	EntityID   *int64
	Operation  *models.AuditOperation
	Operator   *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// CreateAuditLog appends a new audit log entry. ID and CreatedAt are assigned here.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if !log.Operation.Valid() {
		return fmt.Errorf("invalid audit operation: %q", log.Operation)
	}

	log.ID = uuid.New().String()
	log.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO audit_logs (id, entity_type, entity_id, operation, operator, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.EntityType,
		log.EntityID,
		string(log.Operation),
		log.Operator,
		log.Comment,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

// ListAuditLogs retrieves audit logs with optional filters and pagination, newest first
func (r *AuditRepository) ListAuditLogs(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	add := func(clause string, value interface{}) {
		where += fmt.Sprintf(clause, paramIndex)
		args = append(args, value)
		paramIndex++
	}

	if filters.EntityType != nil {
		add(` AND entity_type = $%d`, *filters.EntityType)
	}
	if filters.EntityID != nil {
		add(` AND entity_id = $%d`, *filters.EntityID)
	}
	if filters.Operation != nil {
		add(` AND operation = $%d`, string(*filters.Operation))
	}
	if filters.Operator != nil {
		add(` AND operator = $%d`, *filters.Operator)
	}
	if filters.StartDate != nil {
		add(` AND created_at >= $%d`, *filters.StartDate)
	}
	if filters.EndDate != nil {
		add(` AND created_at <= $%d`, *filters.EndDate)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM audit_logs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	logs := make([]*models.AuditLog, 0)
	if err := sqlx.SelectContext(ctx, r.db, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, total, nil
}

// GetAuditLog retrieves a single audit log entry by ID
func (r *AuditRepository) GetAuditLog(ctx context.Context, logID string) (*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`

	log := &models.AuditLog{}
	err := sqlx.GetContext(ctx, r.db, log, query, logID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}

	return log, nil
}
