package bootstrap

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/localnerve/amo-catalog/internal/config"
	"github.com/localnerve/amo-catalog/internal/database"
	"github.com/localnerve/amo-catalog/internal/search"
	"github.com/localnerve/amo-catalog/internal/services"
	"github.com/localnerve/amo-catalog/internal/tasks"
	"github.com/nats-io/nats.go"
	"gorm.io/gorm"
)

// Backends are the connections shared by the server, the worker and the CLI.
type Backends struct {
	Config  *config.Config
	DB      *gorm.DB
	Indexer search.Indexer
	Runner  *tasks.Runner
	Queue   tasks.Queue
	NATS    *nats.Conn
	Logger  *slog.Logger
}

// Open connects to the database, and to elasticsearch and NATS when they are
// configured. Without ES_URL documents go to a NoopIndexer; without NATS_URL
// tasks run in-process through an EagerQueue.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	b := &Backends{Config: cfg, DB: db, Logger: logger}

	b.Indexer = search.NoopIndexer{}
	if cfg.SearchEnabled() {
		client, err := search.NewElasticClient(cfg.ESURL, cfg.ESUsername, cfg.ESPassword)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Indexer = search.NewElasticIndexer(client, cfg.ESIndex, search.WithLogger(logger))
		log.Printf("Indexing add-ons into %s/%s", cfg.ESURL, cfg.ESIndex)
	} else {
		log.Printf("ES_URL not set, search indexing disabled")
	}

	b.Runner = tasks.NewRunner()
	tasks.RegisterIndexHandlers(b.Runner, db, b.Indexer, logger)

	if cfg.QueueEnabled() {
		nc, err := tasks.Connect(cfg.NATSURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.NATS = nc

		queue, err := tasks.NewNATSQueue(ctx, nc, cfg.TaskStream)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to create task queue: %w", err)
		}
		b.Queue = queue
		log.Printf("Publishing tasks to stream %s on %s", cfg.TaskStream, cfg.NATSURL)
	} else {
		b.Queue = tasks.NewEagerQueue(b.Runner, logger)
		log.Printf("NATS_URL not set, running tasks in-process")
	}

	return b, nil
}

// AddonService returns the add-on service bound to these backends.
func (b *Backends) AddonService() *services.AddonService {
	svc := services.NewAddonService(b.DB, b.Queue)
	svc.Logger = b.Logger
	return svc
}

// CollectionService returns the collection service bound to these backends.
func (b *Backends) CollectionService() *services.CollectionService {
	svc := services.NewCollectionService(b.DB, b.Queue)
	svc.Featured = services.ReindexFeatured{Queue: b.Queue, Logger: b.Logger}
	return svc
}

// HealthDeps exposes the live connections to the health check.
func (b *Backends) HealthDeps() services.HealthDeps {
	return services.HealthDeps{DB: b.DB, Indexer: b.Indexer, NATS: b.NATS}
}

// Close releases every open connection.
func (b *Backends) Close() {
	if b.NATS != nil {
		if err := b.NATS.Drain(); err != nil {
			log.Printf("Failed to drain nats connection: %v", err)
		}
	}
	if b.DB != nil {
		if err := database.Close(b.DB); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
}
