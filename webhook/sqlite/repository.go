package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

/*
SQLite implementation of webhook.Repository on top of bun

Used for local runs and tests where a postgres server is overkill.
created_at is kept as unix microseconds so ordering never depends on
how the driver formats timestamps. body is a BLOB: captured bodies are
arbitrary bytes.
*/

type webhookRecord struct {
	bun.BaseModel `bun:"table:webhooks,alias:w"`

	ID            string            `bun:"id,pk"`
	Method        string            `bun:"method,notnull"`
	Pathname      string            `bun:"pathname,notnull"`
	IP            string            `bun:"ip,notnull"`
	StatusCode    int               `bun:"status_code,notnull"`
	ContentType   *string           `bun:"content_type"`
	ContentLength *int64            `bun:"content_length"`
	QueryParams   map[string]string `bun:"query_params"`
	Headers       map[string]string `bun:"headers,notnull"`
	Body          []byte            `bun:"body,type:blob"`
	CreatedAt     int64             `bun:"created_at,notnull"`
}

func (r *webhookRecord) toDomain() webhook.Webhook {
	wh := webhook.Webhook{
		ID:            r.ID,
		Method:        r.Method,
		Pathname:      r.Pathname,
		IP:            r.IP,
		StatusCode:    r.StatusCode,
		ContentType:   r.ContentType,
		ContentLength: r.ContentLength,
		QueryParams:   r.QueryParams,
		Headers:       r.Headers,
		CreatedAt:     time.UnixMicro(r.CreatedAt).UTC(),
	}
	if r.Body != nil {
		body := string(r.Body)
		wh.Body = &body
	}
	if wh.QueryParams == nil {
		wh.QueryParams = map[string]string{}
	}
	if wh.Headers == nil {
		wh.Headers = map[string]string{}
	}
	return wh
}

func (r *webhookRecord) toSummary() webhook.Summary {
	return webhook.Summary{
		ID:        r.ID,
		Method:    r.Method,
		Pathname:  r.Pathname,
		CreatedAt: time.UnixMicro(r.CreatedAt).UTC(),
	}
}

func fromDomain(wh webhook.Webhook) *webhookRecord {
	record := &webhookRecord{
		ID:            wh.ID,
		Method:        wh.Method,
		Pathname:      wh.Pathname,
		IP:            wh.IP,
		StatusCode:    wh.StatusCode,
		ContentType:   wh.ContentType,
		ContentLength: wh.ContentLength,
		QueryParams:   wh.QueryParams,
		Headers:       wh.Headers,
		CreatedAt:     wh.CreatedAt.UnixMicro(),
	}
	if wh.Body != nil {
		record.Body = []byte(*wh.Body)
	}
	return record
}

type Repository struct {
	db *bun.DB
}

// NewRepository opens the database at path and creates the schema.
// An empty path or ":memory:" gives a private in-memory database.
func NewRepository(ctx context.Context, path string) (*Repository, error) {
	dsn := path
	if InMemory(path) {
		dsn = fmt.Sprintf("file:webhooks-%d?mode=memory&cache=shared", time.Now().UnixNano())
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// sqlite serialises writers anyway, one connection also keeps the memory db alive
	sqlDB.SetMaxOpenConns(1)

	repo := &Repository{db: bun.NewDB(sqlDB, sqlitedialect.New())}
	if err := repo.CreateTable(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return repo, nil
}

// InMemory reports whether path names a database that lives only as long as the process
func InMemory(path string) bool {
	path = strings.TrimSpace(path)
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory")
}

// CreateTable creates the webhooks table and its ordering index
func (r *Repository) CreateTable(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*webhookRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	_, err = r.db.NewCreateIndex().
		Model((*webhookRecord)(nil)).
		Index("idx_webhooks_created_at_id").
		IfNotExists().
		Column("created_at", "id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	return nil
}

// Insert persists one captured request
func (r *Repository) Insert(ctx context.Context, wh webhook.Webhook) (webhook.Webhook, error) {
	record := fromDomain(wh)
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return webhook.Webhook{}, webhook.NewStorageError("inserting webhook", fmt.Errorf("%w: %s", webhook.ErrConflict, wh.ID))
		}
		return webhook.Webhook{}, webhook.NewStorageError("inserting webhook", err)
	}
	return record.toDomain(), nil
}

// Get returns the full record for id
func (r *Repository) Get(ctx context.Context, id string) (webhook.Webhook, error) {
	canonical, err := webhook.CanonicalID(id)
	if err != nil {
		return webhook.Webhook{}, fmt.Errorf("%w: %s", webhook.ErrNotFound, id)
	}

	record := &webhookRecord{}
	err = r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", canonical).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webhook.Webhook{}, fmt.Errorf("%w: %s", webhook.ErrNotFound, id)
		}
		return webhook.Webhook{}, webhook.NewStorageError("selecting webhook", err)
	}
	return record.toDomain(), nil
}

// GetByIDs returns the records that exist among ids, order undefined
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]webhook.Webhook, error) {
	valid := webhook.CanonicalIDs(ids)
	if len(valid) == 0 {
		return []webhook.Webhook{}, nil
	}

	var records []webhookRecord
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(valid)).
		Scan(ctx)
	if err != nil {
		return nil, webhook.NewStorageError("selecting webhooks", err)
	}

	webhooks := make([]webhook.Webhook, 0, len(records))
	for i := range records {
		webhooks = append(webhooks, records[i].toDomain())
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

	var records []webhookRecord
	q := r.db.NewSelect().
		Model(&records).
		Column("id", "method", "pathname", "created_at").
		OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC").
		Limit(limit + 1)
	if cursor != nil {
		// a deleted cursor makes the subquery NULL, so nothing matches
		q = q.Where(
			"(?TableAlias.created_at, ?TableAlias.id) < (SELECT c.created_at, c.id FROM webhooks AS c WHERE c.id = ?)",
			*cursor,
		)
	}
	if err := q.Scan(ctx); err != nil {
		return webhook.Page{}, webhook.NewStorageError("selecting page", err)
	}

	summaries := make([]webhook.Summary, 0, len(records))
	for i := range records {
		summaries = append(summaries, records[i].toSummary())
	}

	items, next := webhook.NextCursor(summaries, limit)
	return webhook.Page{Items: items, NextCursor: next}, nil
}

// Clear removes every captured request
func (r *Repository) Clear(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*webhookRecord)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return webhook.NewStorageError("clearing webhooks", err)
	}
	return nil
}

// Count returns how many requests are stored
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*webhookRecord)(nil)).Count(ctx)
	if err != nil {
		return 0, webhook.NewStorageError("counting webhooks", err)
	}
	return int64(n), nil
}

// CountSince returns how many requests were captured at or after since
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	n, err := r.db.NewSelect().
		Model((*webhookRecord)(nil)).
		Where("?TableAlias.created_at >= ?", since.UnixMicro()).
		Count(ctx)
	if err != nil {
		return 0, webhook.NewStorageError("counting recent webhooks", err)
	}
	return int64(n), nil
}

// Close closes the database connection
func (r *Repository) Close(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

var _ webhook.Repository = (*Repository)(nil)
