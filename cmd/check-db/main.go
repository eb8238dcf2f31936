// Package main is a diagnostic tool for testing database connectivity and
// inspecting live collaboration data. It connects to the database, queries the
// teams and invitations tables, and prints a summary to stdout. The binary
// exits with a non-zero code on any failure so it can be embedded in health
// checks or CI/CD pipeline steps to gate deployments on a reachable, populated
// database.
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
		dbPassword = "freelancehub"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=freelancehub password=%s dbname=freelancehub sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	var userCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	fmt.Printf("Users: %d\n", userCount)

	// Check teams
	fmt.Println("\n=== TEAMS ===")
	rows, err := db.Query("SELECT id, name, slug, kind, owner_id FROM teams ORDER BY created_at")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, slug, kind, ownerID string
		if err := rows.Scan(&id, &name, &slug, &kind, &ownerID); err != nil {
			log.Printf("Warning: failed to scan team row: %v", err)
			continue
		}
		fmt.Printf("Team: %s [%s] kind=%s (ID: %s, owner: %s)\n", name, slug, kind, id, ownerID)
	}

	// Check invitations by status
	fmt.Println("\n=== INVITATIONS ===")
	rows2, err := db.Query("SELECT status, COUNT(*) FROM invitations GROUP BY status ORDER BY status")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	count := 0
	for rows2.Next() {
		var status string
		var n int
		if err := rows2.Scan(&status, &n); err != nil {
			log.Printf("Warning: failed to scan invitation row: %v", err)
			continue
		}
		fmt.Printf("Invitations %s: %d\n", status, n)
		count += n
	}

	if count == 0 {
		fmt.Println("No invitations found!")
	}
}
