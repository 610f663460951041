// Package main is a diagnostic tool that checks database connectivity and prints the live
// namespaces of one app cluster. It exits non-zero on any failure so it can gate
// deployment steps on a reachable, migrated database.
//
//	check-db <appId> <clusterName>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/config-registry/config-registry/internal/config"
	"github.com/config-registry/config-registry/internal/db"
	"github.com/config-registry/config-registry/internal/db/repositories"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <appId> <clusterName>", os.Args[0])
	}
	appID, cluster := os.Args[1], os.Args[2]

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), 2, 1)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close()

	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}
	fmt.Printf("Schema version: %d (dirty: %v)\n", version, dirty)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := repositories.NewNamespaceRepository(db.Wrap(database))

	count, err := repo.CountByAppAndCluster(ctx, appID, cluster)
	if err != nil {
		log.Fatalf("Count failed: %v", err)
	}

	fmt.Printf("\n=== NAMESPACES %s/%s (%d live) ===\n", appID, cluster, count)
	list, err := repo.ListByAppAndCluster(ctx, appID, cluster)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	for _, ns := range list {
		fmt.Printf("%6d  %-40s  created by %s at %s\n", ns.ID, ns.NamespaceName, ns.CreatedBy, ns.CreatedAt.Format(time.RFC3339))
	}
}
