package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

// LoadPublished returns the snapshot of siteID, or domain.ErrNotFound.
func (s *Store) LoadPublished(ctx context.Context, siteID string) (domain.PublishedConfig, error) {
	return s.loadPublished(ctx, `SELECT snapshot FROM published_sites WHERE site_id = ?`, siteID)
}

// LoadPublishedBySubdomain returns the snapshot served under subdomain, or domain.ErrNotFound.
func (s *Store) LoadPublishedBySubdomain(ctx context.Context, subdomain string) (domain.PublishedConfig, error) {
	return s.loadPublished(ctx, `SELECT snapshot FROM published_sites WHERE subdomain = ?`, subdomain)
}

func (s *Store) loadPublished(ctx context.Context, query string, arg string) (domain.PublishedConfig, error) {
	var blob string
	err := s.queryRow(ctx, query, arg).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PublishedConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PublishedConfig{}, fmt.Errorf("failed to read published snapshot: %w", err)
	}
	return decodePublished(blob)
}

func decodePublished(blob string) (domain.PublishedConfig, error) {
	var p domain.PublishedConfig
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return domain.PublishedConfig{}, fmt.Errorf("failed to decode published snapshot: %w", err)
	}
	return p, nil
}

// ListPublished returns every published snapshot.
func (s *Store) ListPublished(ctx context.Context) ([]domain.PublishedConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT snapshot FROM published_sites ORDER BY site_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list published snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.PublishedConfig
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan published snapshot: %w", err)
		}
		p, err := decodePublished(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list published snapshots: %w", err)
	}
	return out, nil
}

// SavePublished replaces the snapshot of p.SiteID in one transaction.
// On failure the previous snapshot is left untouched.
func (s *Store) SavePublished(ctx context.Context, p domain.PublishedConfig) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode published snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin publish: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.exec(ctx, tx, `DELETE FROM published_sites WHERE site_id = ?`, p.SiteID); err != nil {
		return fmt.Errorf("failed to replace published snapshot: %w", err)
	}
	_, err = s.exec(ctx, tx, `INSERT INTO published_sites (site_id, subdomain, snapshot, published_at)
		VALUES (?, ?, ?, ?)`, p.SiteID, nullable(p.Subdomain), string(blob), formatTime(p.PublishedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: subdomain %q is published by another site", domain.ErrConflict, p.Subdomain)
	}
	if err != nil {
		return fmt.Errorf("failed to insert published snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit publish: %w", err)
	}
	return nil
}
