package dto

import (
	"strings"
	"time"

	"main/model"
)

// CreateNoteRequest is the POST /api/notes body. Content is a pointer so an
// explicitly supplied empty string passes the presence check.
type CreateNoteRequest struct {
	Title     string   `json:"title" binding:"required,max=200"`
	Content   *string  `json:"content" binding:"required"`
	Tags      []string `json:"tags"`
	EventDate string   `json:"event_date" binding:"omitempty,eventdate"`
	EventTime string   `json:"event_time" binding:"omitempty,eventtime"`
	Position  int      `json:"position"`
}

// UpdateNoteRequest is the PUT /api/notes/:id body. Nil fields are left
// untouched; an empty event_date or event_time clears the stored value.
type UpdateNoteRequest struct {
	Title     *string   `json:"title" binding:"omitempty,max=200"`
	Content   *string   `json:"content"`
	Tags      *[]string `json:"tags"`
	EventDate *string   `json:"event_date" binding:"omitempty,eventdate"`
	EventTime *string   `json:"event_time" binding:"omitempty,eventtime"`
	Position  *int      `json:"position"`
}

type ReorderRequest struct {
	Order *[]int64 `json:"order" binding:"required"`
}

type TranslateRequest struct {
	TargetLanguage string `json:"target_language" binding:"required"`
}

type TranslateResponse struct {
	TranslatedTitle   string `json:"translated_title"`
	TranslatedContent string `json:"translated_content"`
}

type GenerateRequest struct {
	Input    string `json:"input" binding:"required"`
	Language string `json:"language"`
}

// GenerateResponse carries the created note plus either the parsed structured
// fields or a warning when the model output could not be parsed.
type GenerateResponse struct {
	Note           NoteResponse    `json:"note"`
	StructuredData *StructuredNote `json:"structured_data,omitempty"`
	Warning        string          `json:"warning,omitempty"`
}

// StructuredNote is the JSON contract of the extraction prompt. The field
// names are capitalized on the wire because that is what the prompt demands
// of the model.
type StructuredNote struct {
	Title string   `json:"Title"`
	Notes string   `json:"Notes"`
	Tags  []string `json:"Tags"`
	Date  string   `json:"Date,omitempty"`
	Time  string   `json:"Time,omitempty"`
}

// NoteResponse matches the original wire shape: tags as a list (never null),
// event fields as nullable strings, timestamps in RFC 3339.
type NoteResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	EventDate *string   `json:"event_date"`
	EventTime *string   `json:"event_time"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Convert a single note to NoteResponse
func ToNoteResponse(note *model.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Tags:      SplitTags(note.Tags),
		EventDate: optional(note.EventDate),
		EventTime: optional(note.EventTime),
		Position:  note.Position,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// Convert slice of notes to slice of NoteResponse
func ToNoteResponses(notes []*model.Note) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = ToNoteResponse(note)
	}
	return responses
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// JoinTags flattens a tag list into the comma-separated storage form,
// dropping empty entries.
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, ",")
}

// SplitTags expands the comma-separated storage form; an empty value yields
// an empty list, not nil, so it serializes as [].
func SplitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
