package repository

import (
	"context"

	"main/model"
)

// NoteUpdate carries a partial update. Nil fields are left untouched.
// An empty string supplied for EventDate or EventTime clears the value.
type NoteUpdate struct {
	Title     *string
	Content   *string
	Tags      *string
	EventDate *string
	EventTime *string
	Position  *int
}

// NoteStore is the persistence contract. Two implementations exist: a local
// SQLite store (file-based or in-memory) and a Supabase REST store. The
// active one is chosen once at startup from the environment.
type NoteStore interface {
	// List returns all notes ordered by position ascending, ties broken by
	// updated_at descending.
	List(ctx context.Context) ([]*model.Note, error)

	// Get returns the note with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Note, error)

	// Create persists a new note. The store assigns ID, CreatedAt and
	// UpdatedAt; the returned note is fully populated.
	Create(ctx context.Context, note *model.Note) (*model.Note, error)

	// Update applies a partial update and refreshes UpdatedAt. Returns the
	// updated note, or ErrNotFound.
	Update(ctx context.Context, id int64, upd NoteUpdate) (*model.Note, error)

	// Delete removes the note permanently. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id int64) error

	// Search returns notes whose title or content contains the query,
	// case-insensitively, ordered by updated_at descending. An empty query
	// yields an empty result.
	Search(ctx context.Context, query string) ([]*model.Note, error)

	// Reorder assigns position = index for each id in order. Ids not present
	// in the store are skipped.
	Reorder(ctx context.Context, ids []int64) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Name identifies the backend ("sqlite" or "supabase") for logs, the
	// health endpoint and metric labels.
	Name() string

	Close() error
}
