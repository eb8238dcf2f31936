// Package main is a repair tool for dirty migration state in the FreelanceHub
// database. Dirty state occurs when the golang-migrate runner marks a version
// as in-progress (dirty=true) but the process was interrupted before the
// migration completed. The server then refuses to start with a "Dirty database
// version" error; this tool clears the flag so the next startup can retry the
// migration cleanly.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	password := os.Getenv("DATABASE_PASSWORD")
	if password == "" {
		password = "freelancehub"
	}

	dsn := fmt.Sprintf("host=localhost port=5432 user=freelancehub password=%s dbname=freelancehub sslmode=disable", password)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	version, dirty := migrationState(db)
	log.Printf("Migration state: version=%d, dirty=%v", version, dirty)

	if !dirty {
		log.Println("Nothing to repair")
		return
	}

	if _, err := db.Exec("UPDATE schema_migrations SET dirty = false"); err != nil {
		log.Fatalf("Failed to clear dirty flag: %v", err)
	}

	version, dirty = migrationState(db)
	log.Printf("Repaired: version=%d, dirty=%v", version, dirty)
}

func migrationState(db *sql.DB) (version int, dirty bool) {
	if err := db.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty); err != nil {
		log.Fatalf("Failed to read migration state: %v", err)
	}
	return version, dirty
}
