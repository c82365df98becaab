package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portal/pkg/config"
)

//go:generate mockgen -source=store.go -destination=mock_store.go -package=store

// Slot names one independently addressable snapshot record.
type Slot string

const (
	SlotUsers          Slot = "users"
	SlotPosts          Slot = "posts"
	SlotCurrentSession Slot = "currentSession"
)

// Store holds whole-value snapshots keyed by slot. Load returns nil data
// and a nil error when the slot was never written.
type Store interface {
	Load(ctx context.Context, slot Slot) ([]byte, error)
	Save(ctx context.Context, slot Slot, data []byte) error
}

// Open connects the backend selected by cfg.Store. The returned func
// releases the connection.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case "memory":
		return NewMemory(), noop, nil

	case "file":
		s, err := NewFile(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case "redis":
		conn, err := redis.DialURL(cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("store: can't connect to Redis: %w", err)
		}
		return NewRedis(conn), conn.Close, nil

	case "mongo":
		mongoCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("store: can't connect to MongoDB: %w", err)
		}
		if err := client.Ping(mongoCtx, nil); err != nil {
			return nil, nil, fmt.Errorf("store: unable to reach MongoDB: %w", err)
		}
		coll := client.Database(cfg.MongoDB).Collection("snapshots")
		disconnect := func() error {
			return client.Disconnect(context.Background())
		}
		return NewMongo(coll), disconnect, nil

	case "postgres":
		return openSQL(ctx, "pgx", cfg.PostgresDSN)

	case "sqlite":
		return openSQL(ctx, "sqlite3", cfg.StorePath)
	}
	return nil, nil, fmt.Errorf("store: unknown backend %q", cfg.Store)
}

func openSQL(ctx context.Context, driver, dsn string) (Store, func() error, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("store: unable to open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("store: unable to reach %s: %w", driver, err)
	}
	s := NewSQL(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, db.Close, nil
}
