package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/config"
	"github.com/kailas-cloud/quizgen/internal/db"
	dbRedis "github.com/kailas-cloud/quizgen/internal/db/redis"
	"github.com/kailas-cloud/quizgen/internal/domain"
	chromemrepo "github.com/kailas-cloud/quizgen/internal/repository/chromem"
	documentrepo "github.com/kailas-cloud/quizgen/internal/repository/document"
	"github.com/kailas-cloud/quizgen/internal/repository/pgvector"
)

// vectorIndex is what every backend adapter provides.
type vectorIndex interface {
	Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.Neighbor, error)
	Get(ctx context.Context, id string) (domain.IndexedDocument, error)
	Upsert(ctx context.Context, doc domain.IndexedDocument) (bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// backend bundles the vector index with its connection lifecycle.
type backend struct {
	index vectorIndex
	ping  pinger
	redis *dbRedis.Store // non-nil only for the redis driver; backs the embedding cache
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	dims := cfg.Vector.Dimensions

	switch cfg.Vector.Driver {
	case config.DriverRedis:
		rc := cfg.Vector.Redis
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    rc.Addrs,
			Password: rc.Password,
			DB:       rc.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(rc.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		repo := documentrepo.New(store, dims, documentrepo.IndexConfig{
			Algorithm:   db.VectorAlgorithm(strings.ToUpper(rc.IndexAlgorithm)),
			M:           rc.HNSWM,
			EFConstruct: rc.HNSWEFConstruct,
		})
		if err := repo.EnsureIndex(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure redis index: %w", err)
		}
		logger.Info("Connected to Redis", zap.Strings("addrs", rc.Addrs))
		return &backend{index: repo, ping: store, redis: store, close: store.Close}, nil

	case config.DriverPostgres:
		bdb, err := pgvector.Open(pgvector.Config{
			DSN:   cfg.Vector.Postgres.DSN,
			Debug: cfg.Vector.Postgres.Debug,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := pgvector.New(bdb, dims)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = bdb.Close()
			return nil, fmt.Errorf("ensure pgvector schema: %w", err)
		}
		logger.Info("Connected to PostgreSQL")
		return &backend{index: repo, ping: repo, close: func() { _ = bdb.Close() }}, nil

	case config.DriverMemory:
		cdb, err := chromemrepo.Open(chromemrepo.Config{
			Path:     cfg.Vector.Memory.Path,
			Compress: cfg.Vector.Memory.Compress,
		})
		if err != nil {
			return nil, fmt.Errorf("open chromem: %w", err)
		}
		repo, err := chromemrepo.New(cdb)
		if err != nil {
			return nil, fmt.Errorf("create chromem repository: %w", err)
		}
		logger.Info("Using in-process vector index", zap.String("path", cfg.Vector.Memory.Path))
		return &backend{index: repo, ping: repo, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown vector driver %q", cfg.Vector.Driver)
	}
}
