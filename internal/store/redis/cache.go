package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/pulsepage/internal/view"
	"github.com/redis/go-redis/v9"
)

// SavePage stores the rendered page of subdomain with the public TTL
func (s *Store) SavePage(ctx context.Context, subdomain string, page view.Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	if err := s.client.Set(ctx, PublicKey(subdomain), data, s.publicTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}

// GetPage retrieves the rendered page of subdomain. A miss returns nil, nil.
func (s *Store) GetPage(ctx context.Context, subdomain string) (*view.Page, error) {
	data, err := s.client.Get(ctx, PublicKey(subdomain)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}

	var page view.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return &page, nil
}

// PageSubdomains scans the subdomains that have a cached page
func (s *Store) PageSubdomains(ctx context.Context) ([]string, error) {
	var subs []string
	iter := s.client.Scan(ctx, 0, KeyPrefixPublic+"*", 0).Iterator()
	for iter.Next(ctx) {
		sub, err := ExtractSubdomain(iter.Val())
		if err != nil {
			continue
		}
		subs = append(subs, sub)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cached pages: %w", err)
	}
	return subs, nil
}
