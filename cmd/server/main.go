package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	documentapp "github.com/docflow/backend/internal/application/document"
	quotationapp "github.com/docflow/backend/internal/application/quotation"
	"github.com/docflow/backend/internal/infrastructure/config"
	"github.com/docflow/backend/internal/infrastructure/event"
	"github.com/docflow/backend/internal/infrastructure/lock"
	"github.com/docflow/backend/internal/infrastructure/logger"
	"github.com/docflow/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// services bundles the wired application services. Interface adapters
// (RPC, queue consumers) attach here.
type services struct {
	Quotations *quotationapp.QuotationService
	Deliveries *documentapp.DeliveryService
	Invoices   *documentapp.InvoiceService
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting document workflow engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Lock service and background reaper
	lockService, err := lock.NewServiceFromConfig(cfg, db.DB, log)
	if err != nil {
		log.Fatal("Failed to create lock service", zap.Error(err))
	}
	if reapable, ok := lockService.Store().(lock.StaleReaper); ok {
		reaper := lock.NewReaper(reapable, log, cfg.DocumentLock.TTL, cfg.DocumentLock.ReapInterval)
		go reaper.Run(ctx)
	}

	// Repositories
	quotationRepo := persistence.NewGormQuotationRepository(db.DB)
	deliveryRepo := persistence.NewGormDeliveryRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	svc := &services{
		Quotations: quotationapp.NewQuotationService(quotationRepo, log),
		Deliveries: documentapp.NewDeliveryService(deliveryRepo, quotationRepo, lockService, log),
		Invoices:   documentapp.NewInvoiceService(invoiceRepo, deliveryRepo, quotationRepo, lockService, log),
	}

	// Lifecycle events feed in-process subscribers; the approval
	// workflow integration attaches here.
	bus := event.NewInMemoryBus(log)
	svc.Quotations.SetEventPublisher(bus)

	run(ctx, log, svc)
}

// run blocks until shutdown. Adapter servers consuming the services start
// here once an interface layer is configured.
func run(ctx context.Context, log *zap.Logger, _ *services) {
	log.Info("Document workflow engine ready")
	<-ctx.Done()
	log.Info("Shutting down")
}
