package session

import (
	"context"
	"fmt"
	"strings"
)

// Store backends selectable from configuration.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendSnapshot = "snapshot"
	BackendRedis    = "redis"
)

// Options selects and configures a store backend.
type Options struct {
	Backend string
	// Path is the sqlite database or snapshot file.
	Path string
	// RedisURL is used by the redis backend.
	RedisURL string
}

// Open builds the configured store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendSQLite:
		path := opts.Path
		if path == "" {
			path = "talent-intake.db"
		}
		return OpenSQLite(ctx, path)
	case BackendSnapshot:
		path := opts.Path
		if path == "" {
			path = "sessions.json"
		}
		return OpenSnapshot(path)
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis session store needs a redis url")
		}
		rdb, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown session store backend %q", opts.Backend)
	}
}
