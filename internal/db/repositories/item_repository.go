// item_repository.go implements the item, commit and release gateways: batch soft-deletes
// scoped to one namespace, used when the namespace itself is deleted.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ItemRepository handles database operations for configuration items
type ItemRepository struct {
	db sqlx.ExtContext
}

// NewItemRepository creates a new item repository
func NewItemRepository(db sqlx.ExtContext) *ItemRepository {
	return &ItemRepository{db: db}
}

// BatchDeleteByNamespaceID soft-deletes every live item of a namespace and returns the
// number of rows affected. Zero items is not an error.
func (r *ItemRepository) BatchDeleteByNamespaceID(ctx context.Context, namespaceID int64, operator string) (int64, error) {
	query := `
		UPDATE items
		SET is_deleted = TRUE, last_modified_by = $2, last_modified_at = NOW()
		WHERE namespace_id = $1 AND NOT is_deleted
	`

	res, err := r.db.ExecContext(ctx, query, namespaceID, operator)
	if err != nil {
		return 0, fmt.Errorf("failed to delete items: %w", err)
	}

	return res.RowsAffected()
}

// CommitRepository handles database operations for namespace change history
type CommitRepository struct {
	db sqlx.ExtContext
}

// NewCommitRepository creates a new commit repository
func NewCommitRepository(db sqlx.ExtContext) *CommitRepository {
	return &CommitRepository{db: db}
}

// BatchDelete soft-deletes every live commit in the (app, cluster, namespace) scope
func (r *CommitRepository) BatchDelete(ctx context.Context, appID, clusterName, namespaceName, operator string) (int64, error) {
	query := `
		UPDATE commits
		SET is_deleted = TRUE, last_modified_by = $4, last_modified_at = NOW()
		WHERE app_id = $1 AND cluster_name = $2 AND namespace_name = $3 AND NOT is_deleted
	`

	res, err := r.db.ExecContext(ctx, query, appID, clusterName, namespaceName, operator)
	if err != nil {
		return 0, fmt.Errorf("failed to delete commits: %w", err)
	}

	return res.RowsAffected()
}

// ReleaseRepository handles database operations for release snapshots
type ReleaseRepository struct {
	db sqlx.ExtContext
}

// NewReleaseRepository creates a new release repository
func NewReleaseRepository(db sqlx.ExtContext) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

// BatchDelete soft-deletes every live release in the (app, cluster, namespace) scope
func (r *ReleaseRepository) BatchDelete(ctx context.Context, appID, clusterName, namespaceName, operator string) (int64, error) {
	query := `
		UPDATE releases
		SET is_deleted = TRUE, last_modified_by = $4, last_modified_at = NOW()
		WHERE app_id = $1 AND cluster_name = $2 AND namespace_name = $3 AND NOT is_deleted
	`

	res, err := r.db.ExecContext(ctx, query, appID, clusterName, namespaceName, operator)
	if err != nil {
		return 0, fmt.Errorf("failed to delete releases: %w", err)
	}

	return res.RowsAffected()
}
