package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultReportTTL = 10 * time.Minute
	scanBatchSize    = 200
	pingTimeout      = 5 * time.Second
	// Rendered documents can run to several megabytes.
	redisWriteTimeout = 10 * time.Second
)

// dialRedis connects and checks the server answers before returning.
func dialRedis(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.WriteTimeout = redisWriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func reportTTL(cfg config.CacheConfig) time.Duration {
	if cfg.ReportTTLSeconds <= 0 {
		return defaultReportTTL
	}
	return time.Duration(cfg.ReportTTLSeconds) * time.Second
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// purgePrefix unlinks every key under prefix and reports how many went.
func purgePrefix(ctx context.Context, client *redis.Client, prefix string) (int, error) {
	iter := client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)
	removed := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink failed: %w", err)
		}
		removed += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}
	return removed, flush()
}
