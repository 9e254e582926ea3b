package imagehost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"imagehound/internal/domain"
)

// compile-time check
var _ domain.ImageHost = (*CachedHost)(nil)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS hosted_images (
	name       TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// CachedHost fronts an ImageHost with a local sqlite lookup table so that
// re-submitted media skips the remote existence check. The cache only stores
// name -> URL mappings, never image bytes or search results.
type CachedHost struct {
	inner  domain.ImageHost
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedHost opens (or creates) the sqlite cache at path.
func NewCachedHost(inner domain.ImageHost, path string, ttl time.Duration, logger *slog.Logger) (*CachedHost, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open host cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init host cache schema: %w", err)
	}

	return &CachedHost{inner: inner, db: db, ttl: ttl, logger: logger}, nil
}

// Close releases the cache database.
func (c *CachedHost) Close() error { return c.db.Close() }

// FileExists consults the cache before asking the backing host. Cache
// failures degrade to the remote check.
func (c *CachedHost) FileExists(ctx context.Context, name string) (bool, error) {
	var url string
	err := c.db.QueryRowContext(ctx,
		`SELECT url FROM hosted_images WHERE name = ? AND created_at > ?`,
		name, time.Now().Add(-c.ttl).Unix(),
	).Scan(&url)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, sql.ErrNoRows):
		c.logger.Warn("host cache lookup failed", "name", name, "error", err)
	}

	exists, err := c.inner.FileExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		c.remember(ctx, name, c.inner.URL(name))
	}
	return exists, nil
}

// URL delegates to the backing host.
func (c *CachedHost) URL(name string) string { return c.inner.URL(name) }

// Upload delegates to the backing host and records the result.
func (c *CachedHost) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	url, err := c.inner.Upload(ctx, name, data, contentType)
	if err != nil {
		return "", err
	}
	c.remember(ctx, name, url)
	return url, nil
}

// Purge deletes cache rows older than the TTL. Wired to a cron schedule at
// startup.
func (c *CachedHost) Purge(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM hosted_images WHERE created_at <= ?`,
		time.Now().Add(-c.ttl).Unix(),
	)
	if err != nil {
		return domain.WrapOp("CachedHost.Purge", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.logger.Info("host cache purged", "rows", n)
	}
	return nil
}

func (c *CachedHost) remember(ctx context.Context, name, url string) {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO hosted_images (name, url, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET url = excluded.url, created_at = excluded.created_at`,
		name, url, time.Now().Unix(),
	)
	if err != nil {
		c.logger.Warn("host cache insert failed", "name", name, "error", err)
	}
}
