// Package store records generated composites in Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a generation does not exist for the user.
var ErrNotFound = errors.New("store: generation not found")

// Generation is one rendered composite.
type Generation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	LayerCount int       `json:"layerCount"`
	Format     string    `json:"format"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Bytes      int       `json:"bytes"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles database operations for generations.
type Repository struct {
	db DB
}

// NewRepository creates a new repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS generations (
    id          UUID PRIMARY KEY,
    user_id     TEXT NOT NULL,
    layer_count INTEGER NOT NULL,
    format      TEXT NOT NULL,
    width       INTEGER NOT NULL,
    height      INTEGER NOT NULL,
    bytes       INTEGER NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS generations_user_created_idx
    ON generations (user_id, created_at DESC);
`

// Migrate creates the generations table when it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Create inserts g and returns it with the creation time set by the
// database.
func (r *Repository) Create(ctx context.Context, g *Generation) (*Generation, error) {
	query := `
        INSERT INTO generations (id, user_id, layer_count, format, width, height, bytes, url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, user_id, layer_count, format, width, height, bytes, url, created_at
    `
	created, err := scanGeneration(r.db.QueryRow(ctx, query,
		g.ID,
		g.UserID,
		g.LayerCount,
		g.Format,
		g.Width,
		g.Height,
		g.Bytes,
		g.URL,
	))
	if err != nil {
		return nil, fmt.Errorf("store: create generation: %w", err)
	}
	return created, nil
}

// Get returns the generation id owned by userID.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Generation, error) {
	query := `
        SELECT id, user_id, layer_count, format, width, height, bytes, url, created_at
        FROM generations
        WHERE id = $1 AND user_id = $2
    `
	g, err := scanGeneration(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get generation: %w", err)
	}
	return g, nil
}

// ListByUser returns up to limit generations of userID, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, user_id, layer_count, format, width, height, bytes, url, created_at
        FROM generations
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list generations: %w", err)
	}
	defer rows.Close()

	list := make([]Generation, 0)
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan generation: %w", err)
		}
		list = append(list, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list generations: %w", err)
	}
	return list, nil
}

func scanGeneration(row pgx.Row) (*Generation, error) {
	var g Generation
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.LayerCount,
		&g.Format,
		&g.Width,
		&g.Height,
		&g.Bytes,
		&g.URL,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
