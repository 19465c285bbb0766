package main

import (
	"github.com/sirupsen/logrus" // Logging

	"invoicing/internal/config" // Configuration
	"invoicing/internal/db"     // Database
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	config.SetupLogging(cfg)

	gdb, err := db.Connect(cfg) // Connect using the configured driver
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
}
