package main

import (
	"fmt"
	"log"

	"rabill/internal/config"
	"rabill/internal/handler"
	"rabill/internal/repository/postgres"
	"rabill/internal/router"
	"rabill/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	projectRepo := postgres.NewProjectRepo(db)
	boqRepo := postgres.NewBOQItemRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)
	ledger := postgres.NewLedgerRepo(db)
	sequencer := postgres.NewSequencerRepo(db)

	// Initialize services
	projectSvc := service.NewProjectService(projectRepo, boqRepo)
	billingSvc := service.NewBillingService(projectRepo, boqRepo, invoiceRepo, ledger, sequencer, cfg.Ledger)

	// Initialize handlers
	projectH := handler.NewProjectHandler(projectSvc, billingSvc)
	invoiceH := handler.NewInvoiceHandler(billingSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, projectH, invoiceH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
