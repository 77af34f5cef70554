package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/repository"
	"github.com/noah-isme/results-app/pkg/cache"
	"github.com/noah-isme/results-app/pkg/config"
	"github.com/noah-isme/results-app/pkg/database"
)

type accountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

type crawlerStore interface {
	GetConfig(ctx context.Context, userID string) (*models.StoredCrawlerConfig, error)
	SaveConfig(ctx context.Context, cfg *models.StoredCrawlerConfig) error
	ListClasses(ctx context.Context, userID string) ([]models.StoredCrawlerClass, error)
	CreateClass(ctx context.Context, class *models.StoredCrawlerClass) error
	UpdateClass(ctx context.Context, class *models.StoredCrawlerClass) error
	DeleteClass(ctx context.Context, userID, id string) error
}

type resultsStore interface {
	Get(ctx context.Context, userID string) (*models.StoredResults, error)
	Save(ctx context.Context, stored *models.StoredResults) error
}

type stores struct {
	accounts accountStore
	crawler  crawlerStore
	results  resultsStore
	// cache is nil when the results cache is disabled.
	cache *repository.CacheRepository
	db    *sqlx.DB
}

// openStores selects the storage driver and connects Redis when the results
// cache is enabled. A Redis outage only disables the cache.
func openStores(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*stores, error) {
	s := &stores{}
	switch cfg.Database.Driver {
	case config.DriverMemory, "":
		mem := repository.NewMemoryStore()
		s.accounts, s.crawler, s.results = mem.Accounts(), mem.Crawler(), mem.Results()
	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.db = db
		s.accounts = repository.NewAccountRepository(db)
		s.crawler = repository.NewCrawlerRepository(db)
		s.results = repository.NewResultsRepository(db)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("results cache disabled", zap.Error(err))
		} else {
			s.cache = repository.NewCacheRepository(client, "results:", logr)
		}
	}
	return s, nil
}

func (s *stores) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
