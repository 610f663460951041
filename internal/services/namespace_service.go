// Package services implements the namespace lifecycle: uniqueness checks, creation,
// field-merge updates, cascading deletion and template-driven provisioning. Every
// mutation runs inside one transaction together with its audit record; audit copies are
// shipped to external destinations only after that transaction commits.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/config-registry/config-registry/internal/apperrors"
	"github.com/config-registry/config-registry/internal/audit"
	"github.com/config-registry/config-registry/internal/db/models"
	"github.com/config-registry/config-registry/internal/db/repositories"
	"github.com/config-registry/config-registry/internal/safego"
	"github.com/config-registry/config-registry/internal/telemetry"
)

const entityNamespace = "Namespace"

// Operation labels used in logs and the namespace_operations_total metric
const (
	opSave          = "save"
	opUpdate        = "update"
	opDelete        = "delete"
	opDeleteCluster = "delete_cluster"
	opCreatePrivate = "create_private"
)

// shipTimeout bounds one post-commit audit shipping run
const shipTimeout = 30 * time.Second

// NamespaceService manages namespace lifecycles
type NamespaceService struct {
	reader  Stores
	tx      Transactor
	shipper audit.Shipper
}

// NewNamespaceService creates a new namespace service. reader serves lookups outside a
// transaction; shipper may be nil when audit export is disabled.
func NewNamespaceService(reader Stores, tx Transactor, shipper audit.Shipper) *NamespaceService {
	return &NamespaceService{
		reader:  reader,
		tx:      tx,
		shipper: shipper,
	}
}

// auditTrail collects what a transaction did so it can be published once it commits
type auditTrail struct {
	entries []*audit.LogEntry
	items   int64
	commits int64
	release int64
}

// record appends one audit row through st and remembers it for shipping
func (t *auditTrail) record(ctx context.Context, st Stores, ns *models.Namespace, op models.AuditOperation, operator string) error {
	rec := &models.AuditLog{
		EntityType: models.AuditEntityNamespace,
		EntityID:   ns.ID,
		Operation:  op,
		Operator:   operator,
	}
	if err := st.Audits.CreateAuditLog(ctx, rec); err != nil {
		return err
	}
	t.entries = append(t.entries, audit.NewLogEntry(rec, ns.Key()))
	return nil
}

// inTx runs fn in one transaction. Domain errors pass through unchanged; anything else
// is reported as an atomicity failure of op. After a commit the trail is published.
func (s *NamespaceService) inTx(ctx context.Context, op string, fn func(ctx context.Context, st Stores, trail *auditTrail) error) error {
	trail := &auditTrail{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		return fn(ctx, st, trail)
	})
	if err != nil {
		if !apperrors.IsDomain(err) {
			slog.Error("namespace transaction rolled back", "operation", op, "error", err)
			err = apperrors.AtomicityFailure(entityNamespace, op+" rolled back", err)
		}
		return err
	}

	telemetry.NamespaceCascadeDeletedRowsTotal.WithLabelValues("item").Add(float64(trail.items))
	telemetry.NamespaceCascadeDeletedRowsTotal.WithLabelValues("commit").Add(float64(trail.commits))
	telemetry.NamespaceCascadeDeletedRowsTotal.WithLabelValues("release").Add(float64(trail.release))
	s.ship(trail.entries)
	return nil
}

func (s *NamespaceService) ship(entries []*audit.LogEntry) {
	if s.shipper == nil || len(entries) == 0 {
		return
	}
	safego.Go("audit-ship", func() {
		ctx, cancel := context.WithTimeout(context.Background(), shipTimeout)
		defer cancel()
		for _, e := range entries {
			if err := s.shipper.Ship(ctx, e); err != nil {
				slog.Warn("failed to ship audit record", "audit_id", e.ID, "error", err)
			}
		}
	})
}

// observe counts the outcome of a lifecycle operation
func observe(op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
		if kind := apperrors.KindOf(err); kind != "" {
			result = strings.ReplaceAll(string(kind), " ", "_")
		}
	}
	telemetry.NamespaceOperationsTotal.WithLabelValues(op, result).Inc()
}

func validateKey(appID, clusterName, namespaceName string) error {
	switch {
	case appID == "":
		return apperrors.InvalidArgument(entityNamespace, "app id is required")
	case clusterName == "":
		return apperrors.InvalidArgument(entityNamespace, "cluster name is required")
	case namespaceName == "":
		return apperrors.InvalidArgument(entityNamespace, "namespace name is required")
	}
	return nil
}

func isUnique(ctx context.Context, store NamespaceStore, key models.NamespaceKey) (bool, error) {
	existing, err := store.GetByKey(ctx, key.AppID, key.ClusterName, key.NamespaceName)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

func conflict(key models.NamespaceKey) error {
	return apperrors.Conflict(entityNamespace, fmt.Sprintf("namespace %s already exists", key))
}

// IsNamespaceUnique reports whether no live namespace has the given composite key
func (s *NamespaceService) IsNamespaceUnique(ctx context.Context, appID, clusterName, namespaceName string) (bool, error) {
	if err := validateKey(appID, clusterName, namespaceName); err != nil {
		return false, err
	}
	return isUnique(ctx, s.reader.Namespaces, models.NamespaceKey{
		AppID:         appID,
		ClusterName:   clusterName,
		NamespaceName: namespaceName,
	})
}

// FindByID returns the live namespace with the given id, or nil if there is none
func (s *NamespaceService) FindByID(ctx context.Context, id int64) (*models.Namespace, error) {
	return s.reader.Namespaces.GetByID(ctx, id)
}

// FindOne returns the live namespace with the given composite key, or nil if there is none
func (s *NamespaceService) FindOne(ctx context.Context, appID, clusterName, namespaceName string) (*models.Namespace, error) {
	return s.reader.Namespaces.GetByKey(ctx, appID, clusterName, namespaceName)
}

// FindNamespaces returns the live namespaces of a cluster in creation order. The result
// is never nil.
func (s *NamespaceService) FindNamespaces(ctx context.Context, appID, clusterName string) ([]*models.Namespace, error) {
	namespaces, err := s.reader.Namespaces.ListByAppAndCluster(ctx, appID, clusterName)
	if err != nil {
		return nil, err
	}
	if namespaces == nil {
		namespaces = make([]*models.Namespace, 0)
	}
	return namespaces, nil
}

// Save creates a namespace. Any id on ns is ignored; the store assigns a fresh one.
// LastModifiedBy defaults to CreatedBy.
func (s *NamespaceService) Save(ctx context.Context, ns *models.Namespace) (created *models.Namespace, err error) {
	defer func() { observe(opSave, err) }()

	if ns == nil {
		return nil, apperrors.InvalidArgument(entityNamespace, "namespace is required")
	}
	if err := validateKey(ns.AppID, ns.ClusterName, ns.NamespaceName); err != nil {
		return nil, err
	}

	fresh := &models.Namespace{
		AppID:          ns.AppID,
		ClusterName:    ns.ClusterName,
		NamespaceName:  ns.NamespaceName,
		CreatedBy:      ns.CreatedBy,
		LastModifiedBy: ns.LastModifiedBy,
	}
	if fresh.LastModifiedBy == "" {
		fresh.LastModifiedBy = fresh.CreatedBy
	}
	key := fresh.Key()

	err = s.inTx(ctx, opSave, func(ctx context.Context, st Stores, trail *auditTrail) error {
		unique, err := isUnique(ctx, st.Namespaces, key)
		if err != nil {
			return err
		}
		if !unique {
			return conflict(key)
		}

		if err := st.Namespaces.Create(ctx, fresh); err != nil {
			if errors.Is(err, repositories.ErrUniqueViolation) {
				return conflict(key)
			}
			return err
		}

		return trail.record(ctx, st, fresh, models.AuditOpInsert, fresh.CreatedBy)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("namespace created",
		"id", fresh.ID, "app_id", key.AppID, "cluster", key.ClusterName,
		"namespace", key.NamespaceName, "operator", fresh.CreatedBy)
	return fresh, nil
}

// Update merges the mutable fields of ns onto the live namespace with the same composite
// key and persists the result.
func (s *NamespaceService) Update(ctx context.Context, ns *models.Namespace) (updated *models.Namespace, err error) {
	defer func() { observe(opUpdate, err) }()

	if ns == nil {
		return nil, apperrors.InvalidArgument(entityNamespace, "namespace is required")
	}
	if err := validateKey(ns.AppID, ns.ClusterName, ns.NamespaceName); err != nil {
		return nil, err
	}
	key := ns.Key()

	var managed *models.Namespace
	err = s.inTx(ctx, opUpdate, func(ctx context.Context, st Stores, trail *auditTrail) error {
		current, err := st.Namespaces.GetByKey(ctx, key.AppID, key.ClusterName, key.NamespaceName)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.NotFound(entityNamespace, fmt.Sprintf("namespace %s does not exist", key))
		}

		current.MergeFrom(ns)
		if err := st.Namespaces.Update(ctx, current); err != nil {
			if errors.Is(err, repositories.ErrUniqueViolation) {
				return conflict(current.Key())
			}
			return err
		}

		if err := trail.record(ctx, st, current, models.AuditOpUpdate, current.LastModifiedBy); err != nil {
			return err
		}
		managed = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("namespace updated",
		"id", managed.ID, "app_id", key.AppID, "cluster", key.ClusterName,
		"namespace", key.NamespaceName, "operator", managed.LastModifiedBy)
	return managed, nil
}

// DeleteNamespace soft-deletes ns together with its items, commits and releases in one
// transaction and returns the deleted namespace. ns itself is left unmodified.
func (s *NamespaceService) DeleteNamespace(ctx context.Context, ns *models.Namespace, operator string) (deleted *models.Namespace, err error) {
	defer func() { observe(opDelete, err) }()

	if ns == nil {
		return nil, apperrors.InvalidArgument(entityNamespace, "namespace is required")
	}
	if err := validateKey(ns.AppID, ns.ClusterName, ns.NamespaceName); err != nil {
		return nil, err
	}
	if operator == "" {
		return nil, apperrors.InvalidArgument(entityNamespace, "operator is required")
	}

	err = s.inTx(ctx, opDelete, func(ctx context.Context, st Stores, trail *auditTrail) error {
		var err error
		deleted, err = deleteNamespace(ctx, st, trail, ns, operator)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("namespace deleted",
		"id", deleted.ID, "app_id", deleted.AppID, "cluster", deleted.ClusterName,
		"namespace", deleted.NamespaceName, "operator", operator)
	return deleted, nil
}

// deleteNamespace is the cascade: items, commits, releases, then the namespace row.
// It must run inside a transaction owned by the caller.
func deleteNamespace(ctx context.Context, st Stores, trail *auditTrail, ns *models.Namespace, operator string) (*models.Namespace, error) {
	items, err := st.Items.BatchDeleteByNamespaceID(ctx, ns.ID, operator)
	if err != nil {
		return nil, err
	}

	commits, err := st.Commits.BatchDelete(ctx, ns.AppID, ns.ClusterName, ns.NamespaceName, operator)
	if err != nil {
		return nil, err
	}

	releases, err := st.Releases.BatchDelete(ctx, ns.AppID, ns.ClusterName, ns.NamespaceName, operator)
	if err != nil {
		return nil, err
	}

	deleted := *ns
	deleted.MarkDeleted(operator)

	if err := trail.record(ctx, st, &deleted, models.AuditOpDelete, operator); err != nil {
		return nil, err
	}

	if err := st.Namespaces.Update(ctx, &deleted); err != nil {
		return nil, err
	}

	trail.items += items
	trail.commits += commits
	trail.release += releases
	return &deleted, nil
}

// DeleteByAppIDAndClusterName deletes every live namespace of a cluster. The whole batch
// is one transaction: either all namespaces are deleted or none is.
func (s *NamespaceService) DeleteByAppIDAndClusterName(ctx context.Context, appID, clusterName, operator string) (err error) {
	defer func() { observe(opDeleteCluster, err) }()

	switch {
	case appID == "":
		return apperrors.InvalidArgument(entityNamespace, "app id is required")
	case clusterName == "":
		return apperrors.InvalidArgument(entityNamespace, "cluster name is required")
	case operator == "":
		return apperrors.InvalidArgument(entityNamespace, "operator is required")
	}

	var count int
	err = s.inTx(ctx, opDeleteCluster, func(ctx context.Context, st Stores, trail *auditTrail) error {
		namespaces, err := st.Namespaces.ListByAppAndCluster(ctx, appID, clusterName)
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			if _, err := deleteNamespace(ctx, st, trail, ns, operator); err != nil {
				return err
			}
		}
		count = len(namespaces)
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("cluster namespaces deleted",
		"app_id", appID, "cluster", clusterName, "count", count, "operator", operator)
	return nil
}

// CreatePrivateNamespaces provisions one namespace per private template of the
// application into a new cluster. Existing namespaces are not checked for first; a
// repeated call for the same cluster fails with a conflict and creates nothing.
func (s *NamespaceService) CreatePrivateNamespaces(ctx context.Context, appID, clusterName, createdBy string) (err error) {
	defer func() { observe(opCreatePrivate, err) }()

	switch {
	case appID == "":
		return apperrors.InvalidArgument(entityNamespace, "app id is required")
	case clusterName == "":
		return apperrors.InvalidArgument(entityNamespace, "cluster name is required")
	case createdBy == "":
		return apperrors.InvalidArgument(entityNamespace, "operator is required")
	}

	var count int
	err = s.inTx(ctx, opCreatePrivate, func(ctx context.Context, st Stores, trail *auditTrail) error {
		templates, err := st.AppNamespaces.ListPrivate(ctx, appID)
		if err != nil {
			return err
		}

		for _, tmpl := range templates {
			ns := &models.Namespace{
				AppID:          appID,
				ClusterName:    clusterName,
				NamespaceName:  tmpl.Name,
				CreatedBy:      createdBy,
				LastModifiedBy: createdBy,
			}
			if err := st.Namespaces.Create(ctx, ns); err != nil {
				if errors.Is(err, repositories.ErrUniqueViolation) {
					return conflict(ns.Key())
				}
				return err
			}
			if err := trail.record(ctx, st, ns, models.AuditOpInsert, createdBy); err != nil {
				return err
			}
		}
		count = len(templates)
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("private namespaces provisioned",
		"app_id", appID, "cluster", clusterName, "count", count, "operator", createdBy)
	return nil
}
