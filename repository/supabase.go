package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"main/middleware"
	"main/model"
)

// SupabaseStore proxies every NoteStore operation to a hosted Postgres
// instance through its auto-generated PostgREST API. Each operation is one
// HTTP round trip; there is no cross-call transaction, so Reorder is not
// atomic over this backend.
type SupabaseStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSupabaseStore(baseURL, apiKey string, timeout time.Duration) *SupabaseStore {
	return &SupabaseStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *SupabaseStore) Name() string { return "supabase" }

func (s *SupabaseStore) Close() error { return nil }

// noteRecord is the PostgREST row shape for the notes table. Timestamps come
// back without a zone suffix depending on the column type, so they are kept
// as strings and parsed leniently.
type noteRecord struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Tags      string `json:"tags"`
	EventDate string `json:"event_date,omitempty"`
	EventTime string `json:"event_time,omitempty"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r *noteRecord) toNote() *model.Note {
	eventTime := r.EventTime
	// Postgres time columns round-trip as HH:MM:SS; minute precision on the
	// way out.
	if len(eventTime) == 8 {
		eventTime = eventTime[:5]
	}
	return &model.Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Tags:      r.Tags,
		EventDate: r.EventDate,
		EventTime: eventTime,
		Position:  r.Position,
		CreatedAt: parseTimestamp(r.CreatedAt),
		UpdatedAt: parseTimestamp(r.UpdatedAt),
	}
}

func (s *SupabaseStore) do(ctx context.Context, method, query string, body any) ([]noteRecord, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/rest/v1/notes?"+query, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: supabase responded %d: %s",
			ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if len(data) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	var records []noteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return records, nil
}

func toNotes(records []noteRecord) []*model.Note {
	notes := make([]*model.Note, len(records))
	for i := range records {
		notes[i] = records[i].toNote()
	}
	return notes
}

func (s *SupabaseStore) List(ctx context.Context) ([]*model.Note, error) {
	defer middleware.TrackStoreOperation("list", s.Name()).ObserveDuration()

	records, err := s.do(ctx, http.MethodGet, "select=*&order=position.asc,updated_at.desc", nil)
	if err != nil {
		return nil, err
	}
	return toNotes(records), nil
}

func (s *SupabaseStore) Get(ctx context.Context, id int64) (*model.Note, error) {
	defer middleware.TrackStoreOperation("get", s.Name()).ObserveDuration()

	records, err := s.do(ctx, http.MethodGet, fmt.Sprintf("select=*&id=eq.%d&limit=1", id), nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0].toNote(), nil
}

func (s *SupabaseStore) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	defer middleware.TrackStoreOperation("create", s.Name()).ObserveDuration()

	payload := map[string]any{
		"title":    note.Title,
		"content":  note.Content,
		"tags":     note.Tags,
		"position": note.Position,
	}
	if note.EventDate != "" {
		payload["event_date"] = note.EventDate
	}
	if note.EventTime != "" {
		payload["event_time"] = note.EventTime
	}

	records, err := s.do(ctx, http.MethodPost, "select=*", payload)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: create returned no representation", ErrUnavailable)
	}
	return records[0].toNote(), nil
}

func (s *SupabaseStore) Update(ctx context.Context, id int64, upd NoteUpdate) (*model.Note, error) {
	defer middleware.TrackStoreOperation("update", s.Name()).ObserveDuration()

	payload := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if upd.Title != nil {
		payload["title"] = *upd.Title
	}
	if upd.Content != nil {
		payload["content"] = *upd.Content
	}
	if upd.Tags != nil {
		payload["tags"] = *upd.Tags
	}
	if upd.EventDate != nil {
		payload["event_date"] = nullable(*upd.EventDate)
	}
	if upd.EventTime != nil {
		payload["event_time"] = nullable(*upd.EventTime)
	}
	if upd.Position != nil {
		payload["position"] = *upd.Position
	}

	records, err := s.do(ctx, http.MethodPatch, fmt.Sprintf("id=eq.%d", id), payload)
	if err != nil {
		return nil, err
	}
	// PATCH on a missing row succeeds with an empty representation.
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0].toNote(), nil
}

// nullable maps a cleared value to SQL NULL instead of an empty string, which
// Postgres date/time columns would reject.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func (s *SupabaseStore) Delete(ctx context.Context, id int64) error {
	defer middleware.TrackStoreOperation("delete", s.Name()).ObserveDuration()

	records, err := s.do(ctx, http.MethodDelete, fmt.Sprintf("id=eq.%d", id), nil)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) Search(ctx context.Context, query string) ([]*model.Note, error) {
	defer middleware.TrackStoreOperation("search", s.Name()).ObserveDuration()

	if query == "" {
		return []*model.Note{}, nil
	}

	filter := fmt.Sprintf("(title.ilike.*%s*,content.ilike.*%s*)",
		escapeFilterValue(query), escapeFilterValue(query))
	q := "select=*&or=" + url.QueryEscape(filter) + "&order=updated_at.desc"
	records, err := s.do(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}

	notes := toNotes(records)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

// escapeFilterValue guards the PostgREST filter grammar and the ilike
// pattern syntax. Commas and parens would split the or=() expression, and
// % and _ are LIKE wildcards, so they get backslash-escaped to keep the
// substring match literal. * is PostgREST's own wildcard token and cannot
// be escaped, so it is dropped.
func escapeFilterValue(v string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"%", `\%`,
		"_", `\_`,
		",", " ", "(", " ", ")", " ", "*", " ",
	)
	return strings.TrimSpace(replacer.Replace(v))
}

// Reorder issues one PATCH per id. A concurrent List may observe a partially
// applied ordering; the REST backend has no cross-call atomicity and this is
// an accepted limitation.
func (s *SupabaseStore) Reorder(ctx context.Context, ids []int64) error {
	defer middleware.TrackStoreOperation("reorder", s.Name()).ObserveDuration()

	now := time.Now().UTC().Format(time.RFC3339)
	for idx, id := range ids {
		payload := map[string]any{"position": idx, "updated_at": now}
		// Unknown ids patch zero rows, which is the silent skip the
		// contract asks for.
		if _, err := s.do(ctx, http.MethodPatch, fmt.Sprintf("id=eq.%d", id), payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodGet, "select=id&limit=1", nil)
	return err
}
