// namespace_repository.go implements NamespaceRepository, providing database queries for
// namespace lookup by id and composite key, ordered listing per (app, cluster), and
// insert/update. Every read excludes soft-deleted rows.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/config-registry/config-registry/internal/db/models"
	"github.com/jmoiron/sqlx"
)

const namespaceColumns = `id, app_id, cluster_name, namespace_name, is_deleted,
	created_by, last_modified_by, created_at, last_modified_at`

// NamespaceRepository handles database operations for namespaces.
// It runs against either the pool or an open transaction.
type NamespaceRepository struct {
	db sqlx.ExtContext
}

// NewNamespaceRepository creates a new namespace repository
func NewNamespaceRepository(db sqlx.ExtContext) *NamespaceRepository {
	return &NamespaceRepository{db: db}
}

// GetByID retrieves a live namespace by its surrogate id
func (r *NamespaceRepository) GetByID(ctx context.Context, id int64) (*models.Namespace, error) {
	query := `SELECT ` + namespaceColumns + `
		FROM namespaces
		WHERE id = $1 AND NOT is_deleted`

	ns := &models.Namespace{}
	err := sqlx.GetContext(ctx, r.db, ns, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get namespace: %w", err)
	}

	return ns, nil
}

// GetByKey retrieves a live namespace by (appId, clusterName, namespaceName)
func (r *NamespaceRepository) GetByKey(ctx context.Context, appID, clusterName, namespaceName string) (*models.Namespace, error) {
	query := `SELECT ` + namespaceColumns + `
		FROM namespaces
		WHERE app_id = $1 AND cluster_name = $2 AND namespace_name = $3 AND NOT is_deleted`

	ns := &models.Namespace{}
	err := sqlx.GetContext(ctx, r.db, ns, query, appID, clusterName, namespaceName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get namespace: %w", err)
	}

	return ns, nil
}

// ListByAppAndCluster retrieves all live namespaces of a cluster in creation order
func (r *NamespaceRepository) ListByAppAndCluster(ctx context.Context, appID, clusterName string) ([]*models.Namespace, error) {
	query := `SELECT ` + namespaceColumns + `
		FROM namespaces
		WHERE app_id = $1 AND cluster_name = $2 AND NOT is_deleted
		ORDER BY id ASC`

	namespaces := make([]*models.Namespace, 0)
	if err := sqlx.SelectContext(ctx, r.db, &namespaces, query, appID, clusterName); err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	return namespaces, nil
}

// CountByAppAndCluster returns the number of live namespaces of a cluster
func (r *NamespaceRepository) CountByAppAndCluster(ctx context.Context, appID, clusterName string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM namespaces WHERE app_id = $1 AND cluster_name = $2 AND NOT is_deleted`
	if err := sqlx.GetContext(ctx, r.db, &count, query, appID, clusterName); err != nil {
		return 0, fmt.Errorf("failed to count namespaces: %w", err)
	}

	return count, nil
}

// Create inserts a new namespace. The id and timestamps are always assigned by the
// database and written back onto ns.
func (r *NamespaceRepository) Create(ctx context.Context, ns *models.Namespace) error {
	query := `
		INSERT INTO namespaces (app_id, cluster_name, namespace_name, is_deleted, created_by, last_modified_by)
		VALUES ($1, $2, $3, FALSE, $4, $5)
		RETURNING id, created_at, last_modified_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		ns.AppID,
		ns.ClusterName,
		ns.NamespaceName,
		ns.CreatedBy,
		ns.LastModifiedBy,
	).Scan(&ns.ID, &ns.CreatedAt, &ns.LastModifiedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to create namespace: %w", err)
	}

	ns.IsDeleted = false
	return nil
}

// Update persists the mutable columns of an existing namespace row
func (r *NamespaceRepository) Update(ctx context.Context, ns *models.Namespace) error {
	query := `
		UPDATE namespaces
		SET app_id = $2, cluster_name = $3, namespace_name = $4,
		    is_deleted = $5, last_modified_by = $6, last_modified_at = NOW()
		WHERE id = $1
		RETURNING last_modified_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		ns.ID,
		ns.AppID,
		ns.ClusterName,
		ns.NamespaceName,
		ns.IsDeleted,
		ns.LastModifiedBy,
	).Scan(&ns.LastModifiedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to update namespace %d: row does not exist", ns.ID)
		}
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to update namespace: %w", err)
	}

	return nil
}
