package services

import (
	"context"
	"fmt"
	"log"

	"github.com/localnerve/amo-catalog/internal/config"
	"github.com/localnerve/amo-catalog/internal/search"
	"github.com/localnerve/amo-catalog/internal/utils"
	"github.com/nats-io/nats.go"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Search       string            `json:"search"`
	Queue        string            `json:"queue"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthDeps are the live connections a health check may use. A nil member is
// probed over the network from the configured URL instead; an unconfigured
// dependency reports "disabled".
type HealthDeps struct {
	DB      *gorm.DB
	Indexer search.Indexer
	NATS    *nats.Conn
}

// HealthCheck performs a comprehensive health check of the service
func HealthCheck(ctx context.Context, cfg *config.Config, deps HealthDeps) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Search:  "disabled",
		Queue:   "disabled",
		Details: make(map[string]string),
	}

	fail := func(component, key string, err error) {
		result.Status = "unhealthy"
		result.Details[key] = err.Error()
		msg := fmt.Sprintf("%s check failed: %v", component, err)
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
		log.Printf("Health check failed - %s: %v", component, err)
	}

	// Check database connectivity
	if deps.DB == nil {
		result.Database = "error"
		fail("database", "database_error", fmt.Errorf("no connection"))
	} else if sqlDB, err := deps.DB.DB(); err != nil {
		result.Database = "error"
		fail("database", "database_error", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		fail("database", "database_ping_error", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check search connectivity
	if cfg.SearchEnabled() {
		var err error
		if deps.Indexer != nil {
			err = deps.Indexer.Ping(ctx)
		} else {
			err = utils.PingSearch(cfg.ESURL)
		}
		if err != nil {
			result.Search = "unreachable"
			fail("search", "search_error", err)
		} else {
			result.Search = "ok"
			result.Details["search_index"] = cfg.ESIndex
		}
	}

	// Check queue connectivity
	if cfg.QueueEnabled() {
		var err error
		if deps.NATS != nil {
			if !deps.NATS.IsConnected() {
				err = fmt.Errorf("nats connection is %s", deps.NATS.Status())
			}
		} else {
			err = utils.PingBroker(cfg.NATSURL)
		}
		if err != nil {
			result.Queue = "unreachable"
			fail("queue", "queue_error", err)
		} else {
			result.Queue = "ok"
			result.Details["task_stream"] = cfg.TaskStream
		}
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}
