// Package models - audit_log.go defines the AuditLog model, an append-only record of every
// mutation applied to a managed entity: who did it, to which entity, and how.
package models

import "time"

// AuditOperation is the kind of mutation an audit record describes
type AuditOperation string

const (
	AuditOpInsert AuditOperation = "INSERT"
	AuditOpUpdate AuditOperation = "UPDATE"
	AuditOpDelete AuditOperation = "DELETE"
)

// Valid reports whether op is one of the known operations
func (op AuditOperation) Valid() bool {
	switch op {
	case AuditOpInsert, AuditOpUpdate, AuditOpDelete:
		return true
	}
	return false
}

// Audit entity type tags
const (
	AuditEntityNamespace = "Namespace"
)

// AuditLog represents an audit log entry for tracking entity mutations
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	EntityType string         `db:"entity_type" json:"entity_type"` // "Namespace"
	EntityID   int64          `db:"entity_id" json:"entity_id"`
	Operation  AuditOperation `db:"operation" json:"operation"`
	Operator   string         `db:"operator" json:"operator"`
	Comment    *string        `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
