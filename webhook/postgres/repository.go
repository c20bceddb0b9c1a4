package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/marcelsud/webhook-inspector/webhook"
)

/*
PostgreSQL implementation of webhook.Repository

- Placeholders $1, $2 (lib/pq)
- headers and query_params are JSONB
- body is BYTEA: captured bodies are arbitrary bytes (NUL, invalid UTF-8),
  which a TEXT column rejects
- Pagination is keyset on (created_at, id), never OFFSET, so rows inserted
  while a client walks the list cannot shift already-seen rows
*/

// uniqueViolation is the SQLSTATE raised on a duplicate primary key
const uniqueViolation = "23505"

type Repository struct {
	DB *sql.DB
}

// NewRepository creates a repository with the default pool (25, 5, 5 min)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig creates a repository with a custom pool
// maxOpenConns: max simultaneous connections (0 = unlimited)
// maxIdleConns: max idle connections kept in the pool
// maxLifeMinutes: max minutes a connection may be reused
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{
		DB: db,
	}, nil
}

const selectColumns = `id, method, pathname, ip, status_code, content_type, content_length, query_params, headers, body, created_at`

// Insert persists one captured request
func (r *Repository) Insert(ctx context.Context, wh webhook.Webhook) (webhook.Webhook, error) {
	headers, err := json.Marshal(wh.Headers)
	if err != nil {
		return webhook.Webhook{}, fmt.Errorf("marshaling headers: %w", err)
	}
	queryParams, err := json.Marshal(wh.QueryParams)
	if err != nil {
		return webhook.Webhook{}, fmt.Errorf("marshaling query params: %w", err)
	}

	query := `
		INSERT INTO webhooks (id, method, pathname, ip, status_code, content_type, content_length, query_params, headers, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err = r.DB.QueryRowContext(ctx, query,
		wh.ID,
		wh.Method,
		wh.Pathname,
		wh.IP,
		wh.StatusCode,
		nullString(wh.ContentType),
		nullInt64(wh.ContentLength),
		queryParams,
		headers,
		nullBytes(wh.Body),
		wh.CreatedAt,
	).Scan(&wh.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return webhook.Webhook{}, webhook.NewStorageError("inserting webhook", fmt.Errorf("%w: %s", webhook.ErrConflict, wh.ID))
		}
		return webhook.Webhook{}, webhook.NewStorageError("inserting webhook", err)
	}
	wh.CreatedAt = wh.CreatedAt.UTC()

	return wh, nil
}

// Get returns the full record for id
func (r *Repository) Get(ctx context.Context, id string) (webhook.Webhook, error) {
	canonical, err := webhook.CanonicalID(id)
	if err != nil {
		// cannot match a row, and would make the uuid cast fail
		return webhook.Webhook{}, fmt.Errorf("%w: %s", webhook.ErrNotFound, id)
	}
	query := "SELECT " + selectColumns + " FROM webhooks WHERE id = $1"

	wh, err := scanWebhook(r.DB.QueryRowContext(ctx, query, canonical))
	if err == sql.ErrNoRows {
		return webhook.Webhook{}, fmt.Errorf("%w: %s", webhook.ErrNotFound, id)
	}
	if err != nil {
		return webhook.Webhook{}, webhook.NewStorageError("selecting webhook", err)
	}

	return wh, nil
}

// GetByIDs returns the records that exist among ids, order undefined
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]webhook.Webhook, error) {
	// a value that is not a UUID cannot match a row and would make the cast fail
	valid := webhook.CanonicalIDs(ids)
	if len(valid) == 0 {
		return []webhook.Webhook{}, nil
	}

	query := "SELECT " + selectColumns + " FROM webhooks WHERE id = ANY($1::uuid[])"

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(valid))
	if err != nil {
		return nil, webhook.NewStorageError("selecting webhooks", err)
	}
	defer rows.Close()

	webhooks := []webhook.Webhook{}
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, webhook.NewStorageError("scanning webhook", err)
		}
		webhooks = append(webhooks, wh)
	}
	if err := rows.Err(); err != nil {
		return nil, webhook.NewStorageError("iterating webhooks", err)
	}

	return webhooks, nil
}

// Page returns up to limit summaries after cursor, most recent first
func (r *Repository) Page(ctx context.Context, cursor *string, limit int) (webhook.Page, error) {
	if err := webhook.ValidateLimit(limit); err != nil {
		return webhook.Page{}, err
	}
	if cursor != nil {
		canonical, err := webhook.CanonicalID(*cursor)
		if err != nil {
			return webhook.Page{}, &webhook.ValidationError{Field: "cursor", Reason: "must be a webhook id"}
		}
		cursor = &canonical
	}

	var (
		rows *sql.Rows
		err  error
	)
	// one extra row tells whether anything exists past this page
	if cursor == nil {
		rows, err = r.DB.QueryContext(ctx, `
		SELECT id, method, pathname, created_at
		FROM webhooks
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit+1)
	} else {
		// a deleted cursor yields no row in c, hence an empty page
		rows, err = r.DB.QueryContext(ctx, `
		SELECT w.id, w.method, w.pathname, w.created_at
		FROM webhooks w,
			(SELECT created_at, id FROM webhooks WHERE id = $1) c
		WHERE (w.created_at, w.id) < (c.created_at, c.id)
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2`, *cursor, limit+1)
	}
	if err != nil {
		return webhook.Page{}, webhook.NewStorageError("selecting page", err)
	}
	defer rows.Close()

	summaries := []webhook.Summary{}
	for rows.Next() {
		var s webhook.Summary
		if err := rows.Scan(&s.ID, &s.Method, &s.Pathname, &s.CreatedAt); err != nil {
			return webhook.Page{}, webhook.NewStorageError("scanning summary", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return webhook.Page{}, webhook.NewStorageError("iterating page", err)
	}

	items, next := webhook.NextCursor(summaries, limit)
	return webhook.Page{Items: items, NextCursor: next}, nil
}

// Clear removes every captured request
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, "TRUNCATE TABLE webhooks"); err != nil {
		return webhook.NewStorageError("clearing webhooks", err)
	}
	return nil
}

// Count returns how many requests are stored
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhooks").Scan(&count); err != nil {
		return 0, webhook.NewStorageError("counting webhooks", err)
	}
	return count, nil
}

// CountSince returns how many requests were captured at or after since
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhooks WHERE created_at >= $1", since.UTC()).Scan(&count)
	if err != nil {
		return 0, webhook.NewStorageError("counting recent webhooks", err)
	}
	return count, nil
}

// Close closes the database connection
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates the webhooks table and its ordering index
func (r *Repository) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS webhooks (
			id UUID PRIMARY KEY,
			method TEXT NOT NULL,
			pathname TEXT NOT NULL,
			ip TEXT NOT NULL,
			status_code INTEGER NOT NULL DEFAULT 200,
			content_type TEXT,
			content_length INTEGER,
			query_params JSONB,
			headers JSONB NOT NULL,
			body BYTEA,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := r.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_webhooks_created_at_id ON webhooks (created_at DESC, id DESC)`
	if _, err := r.DB.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	return nil
}

// DropTable removes the webhooks table (useful for tests)
func (r *Repository) DropTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, "DROP TABLE IF EXISTS webhooks CASCADE"); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWebhook(row scanner) (webhook.Webhook, error) {
	var (
		wh            webhook.Webhook
		contentType   sql.NullString
		contentLength sql.NullInt64
		queryParams   []byte
		headers       []byte
		body          []byte
	)
	err := row.Scan(
		&wh.ID,
		&wh.Method,
		&wh.Pathname,
		&wh.IP,
		&wh.StatusCode,
		&contentType,
		&contentLength,
		&queryParams,
		&headers,
		&body,
		&wh.CreatedAt,
	)
	if err != nil {
		return webhook.Webhook{}, err
	}

	if wh.Headers, err = decodeMap(headers); err != nil {
		return webhook.Webhook{}, fmt.Errorf("unmarshaling headers: %w", err)
	}
	if wh.QueryParams, err = decodeMap(queryParams); err != nil {
		return webhook.Webhook{}, fmt.Errorf("unmarshaling query params: %w", err)
	}
	if contentType.Valid {
		wh.ContentType = &contentType.String
	}
	if contentLength.Valid {
		wh.ContentLength = &contentLength.Int64
	}
	// NULL scans to nil, an empty bytea to a non-nil empty slice
	if body != nil {
		text := string(body)
		wh.Body = &text
	}
	wh.CreatedAt = wh.CreatedAt.UTC()

	return wh, nil
}

// decodeMap never returns a nil map, a JSON null included
func decodeMap(raw []byte) (map[string]string, error) {
	m := map[string]string{}
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBytes(s *string) sql.Null[[]byte] {
	if s == nil {
		return sql.Null[[]byte]{}
	}
	return sql.Null[[]byte]{V: []byte(*s), Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
