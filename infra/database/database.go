// Package database builds the storage clients.
package database

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// MongoConfig holds MongoDB client configuration.
type MongoConfig struct {
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
}

// DefaultMongoConfig returns tuned defaults.
func DefaultMongoConfig() *MongoConfig {
	maxPool := uint64(50)
	if envMax := os.Getenv("MONGO_MAX_POOL"); envMax != "" {
		if v, err := strconv.ParseUint(envMax, 10, 64); err == nil {
			maxPool = v
		}
	}
	return &MongoConfig{
		MaxPoolSize:    maxPool,
		MinPoolSize:    5,
		ConnectTimeout: 10 * time.Second,
		SocketTimeout:  30 * time.Second,
	}
}

// NewMongo connects and pings the MongoDB deployment.
func NewMongo(ctx context.Context, url, dbName string) (*mongo.Client, *mongo.Database, error) {
	return NewMongoWithConfig(ctx, url, dbName, DefaultMongoConfig())
}

// NewMongoWithConfig connects with explicit pool settings.
func NewMongoWithConfig(ctx context.Context, url, dbName string, cfg *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg == nil {
		cfg = DefaultMongoConfig()
	}

	opts := options.Client().
		ApplyURI(url).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetSocketTimeout(cfg.SocketTimeout).
		SetRetryWrites(true)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	logger.WithField("database", dbName).Info("mongodb connected")
	return client, client.Database(dbName), nil
}

// RedisConfig holds Redis client configuration.
type RedisConfig struct {
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns tuned Redis defaults.
func DefaultRedisConfig() *RedisConfig {
	poolSize := 50
	if envPool := os.Getenv("REDIS_POOL_SIZE"); envPool != "" {
		if v, err := strconv.Atoi(envPool); err == nil {
			poolSize = v
		}
	}
	return &RedisConfig{
		PoolSize:     poolSize,
		MinIdleConns: 10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedis connects to Redis. An empty URL returns nil: Redis is an
// optimization (alert dedup, throttles survive restarts), not a hard
// dependency.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		logger.Warn("REDIS_URL not set, alert dedup state will be in-process only")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	cfg := DefaultRedisConfig()
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.MaxRetries = cfg.MaxRetries
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis connected")
	return client, nil
}
