package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"tonotes/config"
	"tonotes/repository"
	"tonotes/search"
	"tonotes/searchindex/bleveindex"
	"tonotes/searchindex/opensearch"
	"tonotes/services"
	"tonotes/utils"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// app holds the long-lived dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	mongo   *mongo.Client
	redis   *redis.Client
	notes   *repository.NotesRepo
	users   *repository.UsersRepo
	records *repository.NoteRecords

	index        search.Index
	synchronizer *search.Synchronizer

	closers []func() error
}

func newLogger(level string, text bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if text {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// newApp loads configuration and connects to MongoDB, the search index and,
// when REDIS_URL is set, Redis. The caller must call close.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel, cfg.Server.LogLevel == "debug")
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}
	if err := a.connect(ctx); err != nil {
		_ = a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	client, err := utils.NewMongoClient(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}
	a.mongo = client
	a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })

	db := client.Database(a.cfg.Database.DatabaseName)
	a.notes = repository.NewNotesRepo(db, a.cfg.Database.NotesCollection)
	a.users = repository.NewUsersRepo(db, a.cfg.Database.UsersCollection)
	a.records = repository.NewNoteRecords(a.notes, a.users)

	if err := repository.SetupIndexes(ctx, db, a.cfg.Database.NotesCollection, a.cfg.Database.UsersCollection); err != nil {
		return fmt.Errorf("creating MongoDB indexes: %w", err)
	}

	if err := a.openIndex(); err != nil {
		return err
	}

	var (
		stale      search.StaleTracker
		checkpoint search.Checkpoint
	)
	if a.cfg.RedisURL != "" {
		rdb, err := services.NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return err
		}
		a.redis = rdb
		a.closers = append(a.closers, rdb.Close)
		stale = services.NewRedisStaleTracker(rdb)
		checkpoint = services.NewRedisCheckpoint(rdb)
	} else {
		a.logger.Warn("REDIS_URL not set; resync checkpoint and stale notes are kept in memory")
	}

	a.synchronizer = search.NewSynchronizer(a.index, a.records, stale, checkpoint, search.SyncConfig{
		Timeout:   a.cfg.Search.EngineTimeout,
		BatchSize: a.cfg.Search.ResyncBatchSize,
	})
	return nil
}

func (a *app) openIndex() error {
	switch a.cfg.Search.Backend {
	case config.BackendOpenSearch:
		client, err := opensearch.New(opensearch.Config{
			Addresses: a.cfg.Search.OpenSearchURLs,
			Username:  a.cfg.Search.OpenSearchUsername,
			Password:  a.cfg.Search.OpenSearchPassword,
			Index:     a.cfg.Search.OpenSearchIndex,
			Insecure:  a.cfg.Search.OpenSearchInsecure,
		})
		if err != nil {
			return fmt.Errorf("creating OpenSearch client: %w", err)
		}
		a.index = client
	default:
		idx := bleveindex.New(a.cfg.Search.BlevePath)
		a.index = idx
		a.closers = append(a.closers, idx.Close)
	}
	a.logger.Info("search backend selected", "backend", a.cfg.Search.Backend)
	return nil
}

func (a *app) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Search.EngineTimeout)
	defer cancel()
	if err := a.index.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("preparing search index: %w", err)
	}
	return nil
}

func (a *app) pingMongo(ctx context.Context) error {
	return a.mongo.Ping(ctx, readpref.Primary())
}

func (a *app) pingRedis(ctx context.Context) error {
	return a.redis.Ping(ctx).Err()
}

// close releases resources in reverse order of acquisition.
func (a *app) close(context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
