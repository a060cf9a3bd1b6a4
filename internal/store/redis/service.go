package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPublishedTTL is the default TTL for cached snapshots (48 hours)
	DefaultPublishedTTL = 48 * time.Hour
	// DefaultPublicTTL is the default TTL for rendered public pages
	DefaultPublicTTL = 10 * time.Minute
)

// Store caches published snapshots and rendered public pages
type Store struct {
	client    *redis.Client
	publicTTL time.Duration
}

// NewStore creates a new Redis store. A zero publicTTL uses DefaultPublicTTL.
func NewStore(client *redis.Client, publicTTL time.Duration) *Store {
	if publicTTL <= 0 {
		publicTTL = DefaultPublicTTL
	}
	return &Store{
		client:    client,
		publicTTL: publicTTL,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SavePublished caches a snapshot under its subdomain.
// Snapshots without a subdomain are not served and are skipped.
func (s *Store) SavePublished(ctx context.Context, p domain.PublishedConfig) error {
	if p.Subdomain == "" {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, PublishedKey(p.Subdomain), data, DefaultPublishedTTL)
	pipe.SAdd(ctx, AllPublishedKey(), p.Subdomain)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetPublished retrieves the snapshot of subdomain. A miss returns nil, nil.
func (s *Store) GetPublished(ctx context.Context, subdomain string) (*domain.PublishedConfig, error) {
	data, err := s.client.Get(ctx, PublishedKey(subdomain)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var p domain.PublishedConfig
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &p, nil
}

// PublishedSubdomains returns the subdomains with a cached snapshot
func (s *Store) PublishedSubdomains(ctx context.Context) ([]string, error) {
	subs, err := s.client.SMembers(ctx, AllPublishedKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get published subdomains: %w", err)
	}
	return subs, nil
}

// DeleteSite removes the snapshot and page of subdomain
func (s *Store) DeleteSite(ctx context.Context, subdomain string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, PublishedKey(subdomain), PublicKey(subdomain))
	pipe.SRem(ctx, AllPublishedKey(), subdomain)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete site %s: %w", subdomain, err)
	}
	return nil
}
