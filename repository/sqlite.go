package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"main/middleware"
	"main/model"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	event_date TEXT NOT NULL DEFAULT '',
	event_time TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_position ON notes(position, updated_at DESC);
`

// SQLiteStore is the local relational backend. A file path gives durable
// storage; the ":memory:" DSN gives the ephemeral serverless fallback.
type SQLiteStore struct {
	db   *sql.DB
	name string
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps :memory: databases from vanishing between
	// pool checkouts and sidesteps SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	name := "sqlite"
	if dsn == ":memory:" {
		name = "sqlite-memory"
	}
	return &SQLiteStore{db: db, name: name}, nil
}

func (s *SQLiteStore) Name() string { return s.name }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const noteColumns = "id, title, content, tags, event_date, event_time, position, created_at, updated_at"

func scanNote(row interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Tags,
		&n.EventDate, &n.EventTime, &n.Position, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*model.Note, error) {
	defer middleware.TrackStoreOperation("list", s.name).ObserveDuration()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes ORDER BY position ASC, updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

func collectNotes(rows *sql.Rows) ([]*model.Note, error) {
	notes := []*model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Note, error) {
	defer middleware.TrackStoreOperation("get", s.name).ObserveDuration()

	n, err := scanNote(s.db.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	defer middleware.TrackStoreOperation("create", s.name).ObserveDuration()

	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, tags, event_date, event_time, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		note.Title, note.Content, note.Tags, note.EventDate, note.EventTime,
		note.Position, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert note id: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, upd NoteUpdate) (*model.Note, error) {
	defer middleware.TrackStoreOperation("update", s.name).ObserveDuration()

	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Truncate(time.Second)}

	add := func(column string, v any) {
		set = append(set, column+" = ?")
		args = append(args, v)
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Content != nil {
		add("content", *upd.Content)
	}
	if upd.Tags != nil {
		add("tags", *upd.Tags)
	}
	if upd.EventDate != nil {
		add("event_date", *upd.EventDate)
	}
	if upd.EventTime != nil {
		add("event_time", *upd.EventTime)
	}
	if upd.Position != nil {
		add("position", *upd.Position)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	defer middleware.TrackStoreOperation("delete", s.name).ObserveDuration()

	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, query string) ([]*model.Note, error) {
	defer middleware.TrackStoreOperation("search", s.name).ObserveDuration()

	if query == "" {
		return []*model.Note{}, nil
	}

	// instr gives plain substring semantics; LIKE would treat % and _ in the
	// query as wildcards.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE instr(lower(title), lower(?)) > 0 OR instr(lower(content), lower(?)) > 0
		 ORDER BY updated_at DESC`,
		query, query)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// Reorder runs in a single transaction so concurrent readers never observe a
// half-applied ordering.
func (s *SQLiteStore) Reorder(ctx context.Context, ids []int64) error {
	defer middleware.TrackStoreOperation("reorder", s.name).ObserveDuration()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Truncate(time.Second)
	for idx, id := range ids {
		// Ids that no longer exist simply match no row.
		if _, err := tx.ExecContext(ctx,
			"UPDATE notes SET position = ?, updated_at = ? WHERE id = ?",
			idx, now, id); err != nil {
			return fmt.Errorf("reorder note %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}
