package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alkana/warehouse-go/internal/config"
	"github.com/alkana/warehouse-go/internal/domain"
)

const (
	leadTimeSummaryKey = "dashboard:leadtime:summary"
	scanBatchSize      = 100
	defaultDashboardTTL = time.Minute
)

// LeadTimeSummaryCache shields the lead-time rollup query, which scans
// the whole fact, from repeated dashboard refreshes.
type LeadTimeSummaryCache interface {
	GetSummary(ctx context.Context) ([]domain.LeadTimeSummary, bool, error)
	SetSummary(ctx context.Context, summary []domain.LeadTimeSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisLeadTimeCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopLeadTimeCache struct{}

func NewLeadTimeCache(cfg config.CacheConfig) (LeadTimeSummaryCache, error) {
	if !cfg.Enabled {
		return &noopLeadTimeCache{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.DashboardTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}

	return &redisLeadTimeCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopLeadTimeCache() LeadTimeSummaryCache {
	return &noopLeadTimeCache{}
}

func (c *redisLeadTimeCache) GetSummary(ctx context.Context) ([]domain.LeadTimeSummary, bool, error) {
	payload, err := c.client.Get(ctx, leadTimeSummaryKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary []domain.LeadTimeSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode lead time summary cache: %w", err)
	}

	return summary, true, nil
}

func (c *redisLeadTimeCache) SetSummary(ctx context.Context, summary []domain.LeadTimeSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode lead time summary cache: %w", err)
	}

	if err := c.client.Set(ctx, leadTimeSummaryKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisLeadTimeCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, "dashboard:*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

func (n *noopLeadTimeCache) GetSummary(ctx context.Context) ([]domain.LeadTimeSummary, bool, error) {
	return nil, false, nil
}

func (n *noopLeadTimeCache) SetSummary(ctx context.Context, summary []domain.LeadTimeSummary) error {
	return nil
}

func (n *noopLeadTimeCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
