package main

import (
	"database/sql"
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Supported storage drivers.
const (
	JSONFileDriver = "jsonfile"
	BoltDBDriver   = "bolt"
	RedisDriver    = "redis"
	SQLiteDriver   = "sqlite"
)

// NewBookStorage builds the primary books storage based on the configured driver.
// The clients are only required by their own driver and may be nil otherwise.
func NewBookStorage(logger *zap.Logger, config *Config, redisClient *redis.Client, boltClient *bolt.DB, sqliteDB *sql.DB) (BookStorage, error) {
	switch config.Store.Driver {
	case JSONFileDriver:
		return NewJSONBookStorage(logger, config.Store.FilePath)
	case BoltDBDriver:
		if boltClient == nil {
			return nil, fmt.Errorf("storage: %s driver requires a boltdb client", BoltDBDriver)
		}
		return NewBoltBookStorage(logger, &config.BoltDB, boltClient), nil
	case RedisDriver:
		if redisClient == nil {
			return nil, fmt.Errorf("storage: %s driver requires a redis client", RedisDriver)
		}
		return NewRedisBookStorage(logger, redisClient), nil
	case SQLiteDriver:
		if sqliteDB == nil {
			return nil, fmt.Errorf("storage: %s driver requires a sqlite database", SQLiteDriver)
		}
		return NewSQLiteBookStorage(logger, config.SQLite.FilePath, sqliteDB), nil
	}
	return nil, fmt.Errorf("storage: unknown driver %q", config.Store.Driver)
}
