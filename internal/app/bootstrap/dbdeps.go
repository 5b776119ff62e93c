// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/bloodbridge/bloodbridge/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Background collects components started while building the handler so
	// Shutdown can stop them. WAFFLE passes DBDeps by value; the pointer is
	// shared.
	Background *Background
}

// Background holds long-lived helpers with their own goroutines.
type Background struct {
	LoginLimiter *ratelimit.LoginLimiter
	WriteLimiter *ratelimit.Limiter
}
