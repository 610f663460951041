package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var appNamespaceCols = []string{
	"id", "name", "app_id", "format", "is_public", "comment", "is_deleted", "created_by", "created_at",
}

func TestAppNamespaceListPrivate_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppNamespaceRepository(db)
	mock.ExpectQuery("SELECT.*FROM app_namespaces WHERE app_id = .* AND NOT is_public").
		WithArgs("pay").
		WillReturnRows(sqlmock.NewRows(appNamespaceCols).
			AddRow(int64(1), "db-config", "pay", "properties", false, "", false, "alice", time.Now()).
			AddRow(int64(2), "feature-flags", "pay", "json", false, "", false, "alice", time.Now()))

	templates, err := repo.ListPrivate(context.Background(), "pay")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("len = %d, want 2", len(templates))
	}
	if templates[0].Name != "db-config" || templates[1].Name != "feature-flags" {
		t.Errorf("unexpected templates: %s, %s", templates[0].Name, templates[1].Name)
	}
}

func TestAppNamespaceListPrivate_EmptyIsNotNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppNamespaceRepository(db)
	mock.ExpectQuery("SELECT.*FROM app_namespaces").
		WillReturnRows(sqlmock.NewRows(appNamespaceCols))

	templates, err := repo.ListPrivate(context.Background(), "none")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if templates == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestAppNamespaceListPrivate_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppNamespaceRepository(db)
	mock.ExpectQuery("SELECT.*FROM app_namespaces").WillReturnError(errDB)

	if _, err := repo.ListPrivate(context.Background(), "pay"); err == nil {
		t.Error("expected error, got nil")
	}
}
