// Package main is a diagnostic tool for testing database connectivity and
// inspecting live catalog data. It connects to the database, queries the
// resources and resource_versions tables, and prints a summary to stdout. The
// binary exits with a non-zero code on any failure so it can be embedded in
// health checks or CI/CD pipeline steps to gate deployments on a reachable,
// populated database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "spiget"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=spiget password=%s dbname=spiget sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	// Check resources
	fmt.Println("=== RESOURCES ===")
	rows, err := db.Query("SELECT id, name, external, downloads FROM resources ORDER BY id LIMIT 50")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, downloads int64
		var name string
		var external bool
		if err := rows.Scan(&id, &name, &external, &downloads); err != nil {
			log.Printf("Warning: failed to scan resource row: %v", err)
			continue
		}
		kind := "hosted"
		if external {
			kind = "external"
		}
		fmt.Printf("Resource: %s (ID: %d, %s, %d downloads)\n", name, id, kind, downloads)
	}

	// Check versions
	fmt.Println("\n=== RESOURCE VERSIONS ===")
	rows2, err := db.Query("SELECT id, resource_id, name, uuid FROM resource_versions ORDER BY release_date DESC LIMIT 50")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	count := 0
	for rows2.Next() {
		var id, resourceID int64
		var name string
		var uuid *string
		if err := rows2.Scan(&id, &resourceID, &name, &uuid); err != nil {
			log.Printf("Warning: failed to scan version row: %v", err)
			continue
		}
		hasUUID := "NO"
		if uuid != nil && *uuid != "" {
			hasUUID = *uuid
		}
		fmt.Printf("Version: %s (Resource ID: %d, Version ID: %d) - UUID: %s\n", name, resourceID, id, hasUUID)
		count++
	}

	if count == 0 {
		fmt.Println("No versions found!")
	}

	// Check pending update requests
	var pending int64
	if err := db.QueryRow("SELECT COUNT(*) FROM update_requests").Scan(&pending); err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	fmt.Printf("\nPending update requests: %d\n", pending)
}
