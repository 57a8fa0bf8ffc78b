// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/reelhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/mongostore"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/pgstore"
	"github.com/dalemusser/reelhub/internal/app/system/indexes"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// pgIndexedFields are the fields the stores query with Find.
var pgIndexedFields = []string{"group", "user_id", "user_event"}

// ConnectDB opens the configured document store and, when redis_addr is set,
// the Redis client used for rate limits.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{rt: &runtime{}}

	switch appCfg.StoreBackend {
	case BackendMongo:
		opts := options.Client().
			ApplyURI(appCfg.MongoURI).
			SetMaxPoolSize(appCfg.MongoMaxPoolSize).
			SetMinPoolSize(appCfg.MongoMinPoolSize)
		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
		err = client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
		}
		db := client.Database(appCfg.MongoDatabase)
		deps.MongoClient = client
		deps.MongoDatabase = db
		deps.Store = mongostore.New(client, db, logger)
		logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	case BackendPostgres:
		pg, err := pgstore.Open(ctx, appCfg.PostgresDSN, logger)
		if err != nil {
			return DBDeps{}, err
		}
		deps.Postgres = pg
		deps.Store = pg
		logger.Info("connected to PostgreSQL")

	case BackendMemory:
		deps.Store = memstore.New()

	default:
		return DBDeps{}, fmt.Errorf("unknown store_backend %q", appCfg.StoreBackend)
	}

	if appCfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			_ = deps.Store.Close(context.Background())
			return DBDeps{}, fmt.Errorf("redis ping: %w", err)
		}
		deps.Redis = rdb
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	}

	return deps, nil
}

// EnsureSchema sets up indexes or schema as needed.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	switch {
	case deps.MongoDatabase != nil:
		return indexes.EnsureAll(ctx, deps.MongoDatabase, logger)
	case deps.Postgres != nil:
		return deps.Postgres.EnsureSchema(ctx, pgIndexedFields...)
	}
	return nil
}
