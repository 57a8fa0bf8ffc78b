// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"sync"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/pgstore"
	"github.com/dalemusser/reelhub/internal/app/system/ratelimit"
	"github.com/dalemusser/reelhub/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Store is always set. The Mongo, Postgres and Redis fields are set only for
// the configured backend.
type DBDeps struct {
	Store docstore.Store

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Postgres      *pgstore.Store
	Redis         *redis.Client

	rt *runtime
}

// runtime holds resources created after ConnectDB that Shutdown releases.
type runtime struct {
	mu       sync.Mutex
	monitor  *workers.StoreMonitor
	limiters []*ratelimit.Limiter
}

func (rt *runtime) addLimiter(b ratelimit.Backend) {
	l, ok := b.(*ratelimit.Limiter)
	if !ok || rt == nil {
		return
	}
	rt.mu.Lock()
	rt.limiters = append(rt.limiters, l)
	rt.mu.Unlock()
}
