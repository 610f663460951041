// Package models - item.go defines the Item, Commit and Release models. They are owned by
// exactly one Namespace and are soft-deleted together with it.
package models

import "time"

// Item is a single configuration key/value within a namespace
type Item struct {
	ID             int64     `db:"id" json:"id"`
	NamespaceID    int64     `db:"namespace_id" json:"namespace_id"`
	Key            string    `db:"key" json:"key"`
	Value          string    `db:"value" json:"value"`
	Comment        string    `db:"comment" json:"comment"`
	LineNum        int       `db:"line_num" json:"line_num"`
	IsDeleted      bool      `db:"is_deleted" json:"is_deleted"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}

// Commit records one change set applied to a namespace
type Commit struct {
	ID             int64     `db:"id" json:"id"`
	AppID          string    `db:"app_id" json:"app_id"`
	ClusterName    string    `db:"cluster_name" json:"cluster_name"`
	NamespaceName  string    `db:"namespace_name" json:"namespace_name"`
	ChangeSets     string    `db:"change_sets" json:"change_sets"`
	Comment        string    `db:"comment" json:"comment"`
	IsDeleted      bool      `db:"is_deleted" json:"is_deleted"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}

// Release is an immutable snapshot of a namespace's configuration
type Release struct {
	ID             int64     `db:"id" json:"id"`
	ReleaseKey     string    `db:"release_key" json:"release_key"`
	Name           string    `db:"name" json:"name"`
	AppID          string    `db:"app_id" json:"app_id"`
	ClusterName    string    `db:"cluster_name" json:"cluster_name"`
	NamespaceName  string    `db:"namespace_name" json:"namespace_name"`
	Configurations string    `db:"configurations" json:"configurations"`
	Comment        string    `db:"comment" json:"comment"`
	IsAbandoned    bool      `db:"is_abandoned" json:"is_abandoned"`
	IsDeleted      bool      `db:"is_deleted" json:"is_deleted"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}
