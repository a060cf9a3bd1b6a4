package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

// themeConfig is the structured blob holding the nested parts of a draft.
type themeConfig struct {
	Visibility  domain.Visibility                             `json:"visibility"`
	Annotations map[domain.MonitorRef][]domain.IncidentUpdate `json:"annotations"`
	CustomLogs  map[domain.MonitorRef][]domain.Log            `json:"customLogs"`
	Maintenance []domain.MaintenanceWindow                    `json:"maintenance"`
	DataSource  domain.DataSource                             `json:"previewScenario"`
}

const siteColumns = `id, owner_id, brand_name, logo_url, theme, subdomain, api_key,
	monitor_provider, monitors, theme_config`

// LoadSite returns the oldest site of ownerID, or domain.ErrNotFound.
func (s *Store) LoadSite(ctx context.Context, ownerID string) (domain.SiteConfig, error) {
	row := s.queryRow(ctx, `SELECT `+siteColumns+` FROM sites
		WHERE owner_id = ? ORDER BY created_at LIMIT 1`, ownerID)
	return scanSite(row)
}

func scanSite(row *sql.Row) (domain.SiteConfig, error) {
	var (
		cfg       domain.SiteConfig
		subdomain sql.NullString
		monitors  string
		blob      string
	)
	err := row.Scan(&cfg.ID, &cfg.OwnerID, &cfg.BrandName, &cfg.LogoURL, &cfg.Theme, &subdomain,
		&cfg.APIKey, &cfg.MonitorProvider, &monitors, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SiteConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SiteConfig{}, fmt.Errorf("failed to read site: %w", err)
	}
	cfg.Subdomain = subdomain.String

	if err := json.Unmarshal([]byte(monitors), &cfg.Monitors); err != nil {
		return domain.SiteConfig{}, fmt.Errorf("failed to decode monitors of site %s: %w", cfg.ID, err)
	}
	var tc themeConfig
	if err := json.Unmarshal([]byte(blob), &tc); err != nil {
		return domain.SiteConfig{}, fmt.Errorf("failed to decode theme config of site %s: %w", cfg.ID, err)
	}
	cfg.Visibility = tc.Visibility
	cfg.Annotations = tc.Annotations
	cfg.CustomLogs = tc.CustomLogs
	cfg.Maintenance = tc.Maintenance
	cfg.DataSource = tc.DataSource
	return cfg, nil
}

func encodeSite(cfg domain.SiteConfig) (monitors, blob []byte, err error) {
	refs := cfg.Monitors
	if refs == nil {
		refs = []domain.MonitorRef{}
	}
	monitors, err = json.Marshal(refs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode monitors: %w", err)
	}
	blob, err = json.Marshal(themeConfig{
		Visibility:  cfg.Visibility,
		Annotations: cfg.Annotations,
		CustomLogs:  cfg.CustomLogs,
		Maintenance: cfg.Maintenance,
		DataSource:  cfg.DataSource,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode theme config: %w", err)
	}
	return monitors, blob, nil
}

// CreateSite inserts cfg under a new id. A taken subdomain yields domain.ErrConflict.
func (s *Store) CreateSite(ctx context.Context, cfg domain.SiteConfig) (string, error) {
	monitors, blob, err := encodeSite(cfg)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := formatTime(time.Now())
	_, err = s.exec(ctx, s.db, `INSERT INTO sites (`+siteColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, cfg.OwnerID, cfg.BrandName, cfg.LogoURL, cfg.Theme, nullable(cfg.Subdomain), cfg.APIKey,
		cfg.Provider(), string(monitors), string(blob), now, now)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%w: subdomain %q", domain.ErrConflict, cfg.Subdomain)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create site: %w", err)
	}
	return id, nil
}

// UpdateSite overwrites the row of cfg.ID.
func (s *Store) UpdateSite(ctx context.Context, cfg domain.SiteConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("update site: %w", domain.ErrNotFound)
	}
	monitors, blob, err := encodeSite(cfg)
	if err != nil {
		return err
	}

	res, err := s.exec(ctx, s.db, `UPDATE sites SET brand_name = ?, logo_url = ?, theme = ?, subdomain = ?,
		api_key = ?, monitor_provider = ?, monitors = ?, theme_config = ?, updated_at = ?
		WHERE id = ?`,
		cfg.BrandName, cfg.LogoURL, cfg.Theme, nullable(cfg.Subdomain), cfg.APIKey, cfg.Provider(),
		string(monitors), string(blob), formatTime(time.Now()), cfg.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: subdomain %q", domain.ErrConflict, cfg.Subdomain)
	}
	if err != nil {
		return fmt.Errorf("failed to update site %s: %w", cfg.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update site %s: %w", cfg.ID, domain.ErrNotFound)
	}
	return nil
}
