package main

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"invoicing/internal/config"
	"invoicing/internal/db"
	"invoicing/internal/mailer"
	"invoicing/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "invoicectl",
		Short: "Operator commands for the invoicing service",
		Long: `invoicectl reads the same environment as the server (DB_DRIVER, DB_HOST,
DB_NAME, ...) and runs maintenance tasks directly against the database.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSweepCmd(),
		newPromoteCmd(),
		newRenderCmd(),
	)
	return root
}

// connect loads configuration, sets up logging and opens the database
func connect() (*config.Config, *gorm.DB, error) {
	cfg := config.LoadConfig()
	config.SetupLogging(cfg)
	gdb, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gdb, nil
}

// services builds the service set without cache or metrics
func services(cfg *config.Config, gdb *gorm.DB) *service.Set {
	return service.NewSet(service.Options{
		DB:        gdb,
		Mailer:    mailer.Log{},
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
	})
}
