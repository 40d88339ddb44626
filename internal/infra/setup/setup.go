// Package setup подключает хранилище и блокировки по конфигурации
package setup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/m04kA/SMC-SlotCalendar/internal/config"
	slotsRepo "github.com/m04kA/SMC-SlotCalendar/internal/infra/storage/slots"
	slotsService "github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
	"github.com/m04kA/SMC-SlotCalendar/migrations"
	"github.com/m04kA/SMC-SlotCalendar/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotCalendar/pkg/keylock"
	"github.com/m04kA/SMC-SlotCalendar/pkg/logger"
	"github.com/m04kA/SMC-SlotCalendar/pkg/metrics"
	"github.com/m04kA/SMC-SlotCalendar/pkg/txmanager"
)

// CleanupFunc освобождает ресурсы при остановке
type CleanupFunc func()

// OpenRepository подключает хранилище по storage.driver
// stopCh останавливает сбор статистики пула соединений Postgres
func OpenRepository(
	ctx context.Context,
	cfg *config.Config,
	m *metrics.Metrics,
	stopCh <-chan struct{},
	log *logger.Logger,
) (slotsService.SlotRepository, CleanupFunc, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		return openPostgres(ctx, cfg, m, stopCh, log)
	case config.StorageDriverMongo:
		return openMongo(ctx, cfg, log)
	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage, data will be lost on restart")
		return slotsRepo.NewMemoryRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openPostgres(
	ctx context.Context,
	cfg *config.Config,
	m *metrics.Metrics,
	stopCh <-chan struct{},
	log *logger.Logger,
) (slotsService.SlotRepository, CleanupFunc, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	log.Debug("Connection pool: max_open=%d, max_idle=%d, max_lifetime=%ds",
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("Database migrations applied")
	}

	// Без метрик обертка работает как прокси, статистика пула не собирается
	wrappedDB := dbmetrics.WrapWithDefault(db, m, "postgres", stopCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	return slotsRepo.NewRepository(wrappedDB, txMgr), func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database: %v", err)
		}
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log *logger.Logger) (slotsService.SlotRepository, CleanupFunc, error) {
	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Mongo.ConnectTimeout)*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.ConnectionURI()))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	disconnect := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error("Failed to disconnect from MongoDB: %v", err)
		}
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		disconnect()
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	repo := slotsRepo.NewMongoRepository(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		disconnect()
		return nil, nil, err
	}

	log.Info("Successfully connected to MongoDB (db=%s, collection=%s)", cfg.Mongo.Database, cfg.Mongo.Collection)
	return repo, disconnect, nil
}

// OpenLocker создает блокировки по locker.driver
func OpenLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) (slotsService.Locker, CleanupFunc, error) {
	switch cfg.Locker.Driver {
	case config.LockerDriverLocal:
		log.Debug("Using in-process locker, key locks are not shared between instances")
		return keylock.NewLocalLocker(), func() {}, nil
	case config.LockerDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Locker.RedisAddr,
			Password: cfg.Locker.RedisPassword,
			DB:       cfg.Locker.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info("Using redis locker at %s", cfg.Locker.RedisAddr)

		locker := keylock.NewRedisLocker(
			client,
			time.Duration(cfg.Locker.TTL)*time.Millisecond,
			time.Duration(cfg.Locker.RetryInterval)*time.Millisecond,
			log,
		)
		return locker, func() {
			if err := client.Close(); err != nil {
				log.Error("Failed to close redis client: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown locker driver %q", cfg.Locker.Driver)
	}
}
