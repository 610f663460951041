// Package models - app_namespace.go defines the AppNamespace template, an application-level
// declaration that a namespace of a given name should exist in every cluster of the app.
package models

import "time"

// AppNamespace formats
const (
	AppNamespaceFormatProperties = "properties"
	AppNamespaceFormatYAML       = "yaml"
	AppNamespaceFormatJSON       = "json"
	AppNamespaceFormatXML        = "xml"
)

// AppNamespace is a namespace template owned by an application.
// Private templates (IsPublic=false) are provisioned into every new cluster.
type AppNamespace struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	AppID     string    `db:"app_id" json:"app_id"`
	Format    string    `db:"format" json:"format"`
	IsPublic  bool      `db:"is_public" json:"is_public"`
	Comment   string    `db:"comment" json:"comment"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
