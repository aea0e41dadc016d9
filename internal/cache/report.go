package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/config"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const reportKeyPrefix = "report"

// Entry is a cached rendered report.
type Entry struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Rows        int    `json:"rows"`
	Data        []byte `json:"data"`
}

// ReportCache stores rendered reports by request key.
type ReportCache interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, entry *Entry) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache connects to redis when caching is enabled and falls back
// to a cache that never hits otherwise.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{
		client: client,
		ttl:    reportTTL(cfg),
	}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &entry, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, key string, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	n, err := purgePrefix(ctx, c.client, reportKeyPrefix+":")
	if err != nil {
		return err
	}
	log.Debug().Int("keys", n).Msg("report cache purged")
	return nil
}

func (n *noopReportCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) Set(ctx context.Context, key string, entry *Entry) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// BuildReportKey derives the cache key of a rendered report. Requests are
// hashed after JSON encoding, so equal requests against the same dataset
// version share a key.
func BuildReportKey(kind, format, version string, request any) (string, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encode report request: %w", err)
	}

	parts := []string{
		"kind=" + strings.ToLower(kind),
		"format=" + strings.ToLower(format),
		"version=" + version,
		"request=" + string(raw),
	}
	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%s:%s", reportKeyPrefix, strings.ToLower(kind), hex.EncodeToString(hash[:])), nil
}
