// Package models - namespace.go defines the Namespace model, a configuration bucket scoped
// to an application and a deployment cluster, plus its lifecycle helpers.
package models

import "time"

// Namespace is a named configuration bucket for one (app, cluster) pair.
// Only one live (IsDeleted=false) row may exist per composite key.
type Namespace struct {
	ID             int64     `db:"id" json:"id"`
	AppID          string    `db:"app_id" json:"app_id"`
	ClusterName    string    `db:"cluster_name" json:"cluster_name"`
	NamespaceName  string    `db:"namespace_name" json:"namespace_name"`
	IsDeleted      bool      `db:"is_deleted" json:"is_deleted"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}

// NamespaceKey is the composite key (appId, clusterName, namespaceName)
type NamespaceKey struct {
	AppID         string
	ClusterName   string
	NamespaceName string
}

// Key returns the composite key of the namespace
func (n *Namespace) Key() NamespaceKey {
	return NamespaceKey{
		AppID:         n.AppID,
		ClusterName:   n.ClusterName,
		NamespaceName: n.NamespaceName,
	}
}

// String renders the key as app/cluster/namespace for logs and error messages
func (k NamespaceKey) String() string {
	return k.AppID + "/" + k.ClusterName + "/" + k.NamespaceName
}

// MergeFrom copies the mutable attributes of src onto n. Identity (ID), creation
// metadata and the soft-delete flag are never taken from src; empty strings in src
// leave the existing value untouched.
func (n *Namespace) MergeFrom(src *Namespace) {
	if src.AppID != "" {
		n.AppID = src.AppID
	}
	if src.ClusterName != "" {
		n.ClusterName = src.ClusterName
	}
	if src.NamespaceName != "" {
		n.NamespaceName = src.NamespaceName
	}
	if src.LastModifiedBy != "" {
		n.LastModifiedBy = src.LastModifiedBy
	}
}

// MarkDeleted transitions the namespace to its terminal DELETED state
func (n *Namespace) MarkDeleted(operator string) {
	n.IsDeleted = true
	n.LastModifiedBy = operator
}
