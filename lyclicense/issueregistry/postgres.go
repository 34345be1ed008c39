package issueregistry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPostgresTable = "lyc_issued_licenses"

// validIdentifier matches safe PostgreSQL identifiers (letters, digits, underscores).
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresOption configures a PostgresRegistry.
type PostgresOption func(*PostgresRegistry)

// WithTableName sets the PostgreSQL table name. Default: "lyc_issued_licenses".
func WithTableName(name string) PostgresOption {
	return func(r *PostgresRegistry) {
		r.tableName = name
	}
}

// PostgresRegistry implements IssueRegistry using PostgreSQL.
type PostgresRegistry struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewPostgresRegistry creates a new PostgreSQL-backed issue registry.
// It auto-creates the table and indexes on initialization.
func NewPostgresRegistry(ctx context.Context, pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresRegistry, error) {
	r := &PostgresRegistry{
		pool:      pool,
		tableName: defaultPostgresTable,
	}
	for _, opt := range opts {
		opt(r)
	}
	if !validIdentifier.MatchString(r.tableName) {
		return nil, fmt.Errorf("invalid table name %q: must match [a-zA-Z_][a-zA-Z0-9_]*", r.tableName)
	}
	if err := r.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return r, nil
}

func (r *PostgresRegistry) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key_digest  TEXT PRIMARY KEY,
			id          TEXT NOT NULL,
			plugin_id   TEXT NOT NULL,
			licensee_id TEXT NOT NULL DEFAULT '',
			issued_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at  TIMESTAMPTZ,
			revoked_at  TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_%s_plugin_id
			ON %s (plugin_id, issued_at);
	`, r.tableName, r.tableName, r.tableName)
	_, err := r.pool.Exec(ctx, query)
	return err
}

func (r *PostgresRegistry) Record(ctx context.Context, rec IssueRecord) (*IssueRecord, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (key_digest, id, plugin_id, licensee_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key_digest) DO UPDATE SET
			plugin_id = EXCLUDED.plugin_id,
			licensee_id = EXCLUDED.licensee_id,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at
		RETURNING id, issued_at
	`, r.tableName)

	err := r.pool.QueryRow(ctx, query,
		rec.KeyDigest, rec.ID, rec.PluginID, rec.LicenseeID, rec.IssuedAt, nullableTime(rec.ExpiresAt),
	).Scan(&rec.ID, &rec.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("record issuance: %w", err)
	}
	return &rec, nil
}

func (r *PostgresRegistry) Revoke(ctx context.Context, keyDigest string) error {
	query := fmt.Sprintf(`UPDATE %s SET revoked_at = NOW() WHERE key_digest = $1 AND revoked_at IS NULL`, r.tableName)
	_, err := r.pool.Exec(ctx, query, keyDigest)
	if err != nil {
		return fmt.Errorf("revoke license: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) IsRevoked(ctx context.Context, keyDigest string) (bool, error) {
	query := fmt.Sprintf(`SELECT revoked_at IS NOT NULL FROM %s WHERE key_digest = $1`, r.tableName)
	var revoked bool
	err := r.pool.QueryRow(ctx, query, keyDigest).Scan(&revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return revoked, nil
}

func (r *PostgresRegistry) Get(ctx context.Context, keyDigest string) (*IssueRecord, error) {
	query := fmt.Sprintf(`
		SELECT key_digest, id, plugin_id, licensee_id, issued_at, expires_at, revoked_at
		FROM %s WHERE key_digest = $1
	`, r.tableName)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, keyDigest))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (r *PostgresRegistry) ListByPlugin(ctx context.Context, pluginID string) ([]IssueRecord, error) {
	query := fmt.Sprintf(`
		SELECT key_digest, id, plugin_id, licensee_id, issued_at, expires_at, revoked_at
		FROM %s WHERE plugin_id = $1 ORDER BY issued_at
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, pluginID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []IssueRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func (r *PostgresRegistry) CountActive(ctx context.Context, pluginID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE plugin_id = $1 AND revoked_at IS NULL`, r.tableName)
	var count int
	err := r.pool.QueryRow(ctx, query, pluginID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active: %w", err)
	}
	return count, nil
}

func (r *PostgresRegistry) PruneExpired(ctx context.Context, cutoff time.Time) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < $1`, r.tableName)
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune expired: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRegistry) Close(_ context.Context) error {
	return nil // user manages the pgxpool.Pool lifecycle
}

// scanRecord reads one row into an IssueRecord, converting NULL timestamps
// to the zero time.
func scanRecord(row pgx.Row) (*IssueRecord, error) {
	var rec IssueRecord
	var expires, revoked *time.Time
	if err := row.Scan(&rec.KeyDigest, &rec.ID, &rec.PluginID, &rec.LicenseeID,
		&rec.IssuedAt, &expires, &revoked); err != nil {
		return nil, err
	}
	if expires != nil {
		rec.ExpiresAt = *expires
	}
	if revoked != nil {
		rec.RevokedAt = *revoked
	}
	return &rec, nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
