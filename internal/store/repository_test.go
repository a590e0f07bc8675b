package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow scans a stored generation, or returns err.
type fakeRow struct {
	g   *Generation
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 9 {
		return fmt.Errorf("scan: %d destinations, want 9", len(dest))
	}
	*dest[0].(*string) = r.g.ID
	*dest[1].(*string) = r.g.UserID
	*dest[2].(*int) = r.g.LayerCount
	*dest[3].(*string) = r.g.Format
	*dest[4].(*int) = r.g.Width
	*dest[5].(*int) = r.g.Height
	*dest[6].(*int) = r.g.Bytes
	*dest[7].(*string) = r.g.URL
	*dest[8].(*time.Time) = r.g.CreatedAt
	return nil
}

// fakeRows iterates over a slice of generations.
type fakeRows struct {
	list   []Generation
	pos    int
	closed bool
	err    error
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.list) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return fakeRow{g: &r.list[r.pos-1]}.Scan(dest...)
}

// fakeDB keeps generations in memory and records the last statement.
type fakeDB struct {
	rows    map[string]Generation
	lastSQL string
	args    []any
	err     error
	now     time.Time
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		rows: make(map[string]Generation),
		now:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.lastSQL, db.args = sql, args
	return pgconn.CommandTag{}, db.err
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.lastSQL, db.args = sql, args
	if db.err != nil {
		return nil, db.err
	}
	userID, limit := args[0].(string), args[1].(int)
	var list []Generation
	for _, g := range db.rows {
		if g.UserID == userID {
			list = append(list, g)
		}
	}
	// newest first
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].CreatedAt.After(list[j-1].CreatedAt); j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return &fakeRows{list: list}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.lastSQL, db.args = sql, args
	if db.err != nil {
		return fakeRow{err: db.err}
	}
	if strings.Contains(sql, "INSERT") {
		g := Generation{
			ID:         args[0].(string),
			UserID:     args[1].(string),
			LayerCount: args[2].(int),
			Format:     args[3].(string),
			Width:      args[4].(int),
			Height:     args[5].(int),
			Bytes:      args[6].(int),
			URL:        args[7].(string),
			CreatedAt:  db.now,
		}
		db.now = db.now.Add(time.Minute)
		db.rows[g.ID] = g
		return fakeRow{g: &g}
	}
	g, ok := db.rows[args[0].(string)]
	if !ok || g.UserID != args[1].(string) {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{g: &g}
}

func TestRepository_CreateGet(t *testing.T) {
	db := newFakeDB()
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &Generation{
		ID: "g1", UserID: "u1", LayerCount: 3, Format: "jpeg",
		Width: 2048, Height: 2048, Bytes: 1234, URL: "https://cdn/g1.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}

	got, err := repo.Get(ctx, "u1", "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got != *created {
		t.Errorf("Get = %+v, want %+v", got, created)
	}
}

func TestRepository_GetNotFound(t *testing.T) {
	db := newFakeDB()
	repo := NewRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &Generation{ID: "g1", UserID: "owner"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, user, id string
	}{
		{"missing id", "owner", "nope"},
		{"other user", "intruder", "g1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Get(ctx, tt.user, tt.id); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRepository_ListByUser(t *testing.T) {
	db := newFakeDB()
	repo := NewRepository(db)
	ctx := context.Background()

	for _, g := range []Generation{
		{ID: "a", UserID: "u1"},
		{ID: "b", UserID: "u2"},
		{ID: "c", UserID: "u1"},
		{ID: "d", UserID: "u1"},
	} {
		if _, err := repo.Create(ctx, &g); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.ListByUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != "d" || list[1].ID != "c" {
		t.Fatalf("ListByUser = %+v, want [d c]", list)
	}

	if _, err := repo.ListByUser(ctx, "u1", 0); err != nil {
		t.Fatal(err)
	}
	if limit := db.args[1].(int); limit != 50 {
		t.Errorf("default limit = %d, want 50", limit)
	}

	empty, err := repo.ListByUser(ctx, "nobody", 10)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("ListByUser(nobody) = %v, %v; want empty non-nil", empty, err)
	}
}

func TestRepository_DatabaseErrors(t *testing.T) {
	boom := errors.New("connection reset")
	db := newFakeDB()
	db.err = boom
	repo := NewRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &Generation{ID: "x"}); !errors.Is(err, boom) {
		t.Errorf("Create: %v", err)
	}
	if _, err := repo.Get(ctx, "u", "x"); !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Errorf("Get: %v", err)
	}
	if _, err := repo.ListByUser(ctx, "u", 1); !errors.Is(err, boom) {
		t.Errorf("ListByUser: %v", err)
	}
	if err := repo.Migrate(ctx); !errors.Is(err, boom) {
		t.Errorf("Migrate: %v", err)
	}
}

func TestRepository_Migrate(t *testing.T) {
	db := newFakeDB()
	if err := NewRepository(db).Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(db.lastSQL, "CREATE TABLE IF NOT EXISTS generations") {
		t.Errorf("unexpected migration SQL: %s", db.lastSQL)
	}
}
