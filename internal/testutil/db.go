package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoImage is the image started when MONGO_TEST_URI is unset.
const MongoImage = "mongo:7"

// TestTimeout bounds a single test's database work.
const TestTimeout = 30 * time.Second

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
	dbSeq      atomic.Int64
)

// TestContext returns a context bounded by TestTimeout.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), TestTimeout)
}

// sharedClient connects once per test binary. MONGO_TEST_URI wins; otherwise
// a throwaway container is started. The container is left to the reaper.
func sharedClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		uri := os.Getenv("MONGO_TEST_URI")
		if uri == "" {
			container, err := startContainer(ctx)
			if err != nil {
				clientErr = err
				return
			}
			uri, err = container.ConnectionString(ctx)
			if err != nil {
				clientErr = fmt.Errorf("mongo container connection string: %w", err)
				return
			}
		}

		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			clientErr = fmt.Errorf("connect: %w", err)
			return
		}
		if err := c.Ping(ctx, nil); err != nil {
			_ = c.Disconnect(context.Background())
			clientErr = fmt.Errorf("ping: %w", err)
			return
		}
		client = c
	})
	return client, clientErr
}

// startContainer runs the mongodb module. testcontainers panics when no
// Docker host can be found, so that is turned into an error too.
func startContainer(ctx context.Context) (c *mongodb.MongoDBContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start mongo container: %v", r)
		}
	}()
	c, err = mongodb.Run(ctx, MongoImage)
	if err != nil {
		return nil, fmt.Errorf("start mongo container: %w", err)
	}
	return c, nil
}

// SetupTestDB returns a fresh database for the calling test and drops it in
// cleanup. The test is skipped when no MongoDB is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB test in -short mode")
	}

	c, err := sharedClient()
	if err != nil {
		t.Skipf("MongoDB unavailable: %v", err)
	}

	name := fmt.Sprintf("bb_test_%d_%d_%s", os.Getpid(), dbSeq.Add(1), sanitize(t.Name()))
	if len(name) > 60 {
		name = name[:60]
	}
	db := c.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, s)
}
