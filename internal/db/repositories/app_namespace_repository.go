// app_namespace_repository.go implements AppNamespaceRepository, the read-only catalog of
// namespace templates declared at the application level.
package repositories

import (
	"context"
	"fmt"

	"github.com/config-registry/config-registry/internal/db/models"
	"github.com/jmoiron/sqlx"
)

// AppNamespaceRepository handles database reads for app namespace templates
type AppNamespaceRepository struct {
	db sqlx.ExtContext
}

// NewAppNamespaceRepository creates a new app namespace repository
func NewAppNamespaceRepository(db sqlx.ExtContext) *AppNamespaceRepository {
	return &AppNamespaceRepository{db: db}
}

// ListPrivate retrieves the live private templates of an application in declaration order.
// An application without templates yields an empty slice.
func (r *AppNamespaceRepository) ListPrivate(ctx context.Context, appID string) ([]*models.AppNamespace, error) {
	query := `
		SELECT id, name, app_id, format, is_public, comment, is_deleted, created_by, created_at
		FROM app_namespaces
		WHERE app_id = $1 AND NOT is_public AND NOT is_deleted
		ORDER BY id ASC
	`

	templates := make([]*models.AppNamespace, 0)
	if err := sqlx.SelectContext(ctx, r.db, &templates, query, appID); err != nil {
		return nil, fmt.Errorf("failed to list private app namespaces: %w", err)
	}

	return templates, nil
}
