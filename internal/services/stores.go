// stores.go defines the persistence contracts the namespace service depends on and the
// transaction boundary that binds them together.
package services

import (
	"context"
	"fmt"

	"github.com/config-registry/config-registry/internal/db/models"
	"github.com/config-registry/config-registry/internal/db/repositories"
	"github.com/jmoiron/sqlx"
)

// NamespaceStore persists namespaces. Lookups return (nil, nil) when no live row matches.
type NamespaceStore interface {
	GetByID(ctx context.Context, id int64) (*models.Namespace, error)
	GetByKey(ctx context.Context, appID, clusterName, namespaceName string) (*models.Namespace, error)
	ListByAppAndCluster(ctx context.Context, appID, clusterName string) ([]*models.Namespace, error)
	Create(ctx context.Context, ns *models.Namespace) error
	Update(ctx context.Context, ns *models.Namespace) error
}

// ItemStore soft-deletes the configuration items of a namespace
type ItemStore interface {
	BatchDeleteByNamespaceID(ctx context.Context, namespaceID int64, operator string) (int64, error)
}

// CommitStore soft-deletes the change history of a namespace scope
type CommitStore interface {
	BatchDelete(ctx context.Context, appID, clusterName, namespaceName, operator string) (int64, error)
}

// ReleaseStore soft-deletes the release snapshots of a namespace scope
type ReleaseStore interface {
	BatchDelete(ctx context.Context, appID, clusterName, namespaceName, operator string) (int64, error)
}

// AppNamespaceCatalog lists namespace templates. An application without private
// templates yields an empty slice.
type AppNamespaceCatalog interface {
	ListPrivate(ctx context.Context, appID string) ([]*models.AppNamespace, error)
}

// AuditRecorder appends audit records. A failed append fails the surrounding operation.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Stores is the set of collaborators bound to one database handle
type Stores struct {
	Namespaces    NamespaceStore
	Items         ItemStore
	Commits       CommitStore
	Releases      ReleaseStore
	AppNamespaces AppNamespaceCatalog
	Audits        AuditRecorder
}

// NewSQLStores builds every repository over db, which may be the pool or an open transaction
func NewSQLStores(db sqlx.ExtContext) Stores {
	return Stores{
		Namespaces:    repositories.NewNamespaceRepository(db),
		Items:         repositories.NewItemRepository(db),
		Commits:       repositories.NewCommitRepository(db),
		Releases:      repositories.NewReleaseRepository(db),
		AppNamespaces: repositories.NewAppNamespaceRepository(db),
		Audits:        repositories.NewAuditRepository(db),
	}
}

// Transactor runs fn against stores bound to a single transaction. The transaction
// commits only when fn returns nil; any error rolls back every write made through s.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// SQLTransactor implements Transactor on a sqlx pool
type SQLTransactor struct {
	db *sqlx.DB
}

// NewSQLTransactor creates a new SQL transactor
func NewSQLTransactor(db *sqlx.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

// WithinTx implements Transactor
func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if err := fn(ctx, NewSQLStores(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
