package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"main/dto"
	"main/repository"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func setupNotesRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitValidator()

	store, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	notesHandler := NewNoteHandler(&usecase.NoteService{Store: store})

	router := gin.New()
	notes := router.Group("/api/notes")
	{
		notes.GET("", notesHandler.List)
		notes.POST("", notesHandler.Create)
		notes.GET("/search", notesHandler.Search)
		notes.POST("/reorder", notesHandler.Reorder)
		notes.GET("/:id", notesHandler.Get)
		notes.PUT("/:id", notesHandler.Update)
		notes.DELETE("/:id", notesHandler.Delete)
	}
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeNote(t *testing.T, w *httptest.ResponseRecorder) dto.NoteResponse {
	t.Helper()
	var note dto.NoteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatalf("Failed to parse note response: %v (%s)", err, w.Body.String())
	}
	return note
}

func TestNoteLifecycle(t *testing.T) {
	router := setupNotesRouter(t)

	// Create
	w := doJSON(router, "POST", "/api/notes", `{"title":"Meeting","content":"discuss budget"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decodeNote(t, w)
	if created.ID != 1 || created.Position != 0 {
		t.Errorf("Unexpected note: %+v", created)
	}
	if created.Tags == nil || len(created.Tags) != 0 {
		t.Errorf("Expected tags [], got %v", created.Tags)
	}

	// Update tags
	w = doJSON(router, "PUT", "/api/notes/1", `{"tags":["work","q4"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := decodeNote(t, w)
	if len(updated.Tags) != 2 || updated.Tags[0] != "work" || updated.Tags[1] != "q4" {
		t.Errorf("Tags did not round-trip: %v", updated.Tags)
	}
	if updated.Title != "Meeting" {
		t.Errorf("Unspecified title changed: %q", updated.Title)
	}

	// Delete
	w = doJSON(router, "DELETE", "/api/notes/1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}

	// Gone
	w = doJSON(router, "GET", "/api/notes/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
	var errResp utils.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil || errResp.Error == "" {
		t.Errorf("Expected {error: ...} body, got %s", w.Body.String())
	}
}

func TestCreateNoteRejections(t *testing.T) {
	router := setupNotesRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"content":"x"}`},
		{"missing content", `{"title":"x"}`},
		{"bad event_date", `{"title":"x","content":"y","event_date":"tomorrow"}`},
		{"bad event_time", `{"title":"x","content":"y","event_time":"5pm"}`},
		{"not json", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/notes", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestEventTimeRoundTrip(t *testing.T) {
	router := setupNotesRouter(t)

	w := doJSON(router, "POST", "/api/notes",
		`{"title":"Standup","content":"daily","event_time":"09:05:30","event_date":"2025-10-24"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	note := decodeNote(t, w)
	if note.EventTime == nil || *note.EventTime != "09:05" {
		t.Errorf("Expected event_time 09:05, got %v", note.EventTime)
	}
	if note.EventDate == nil || *note.EventDate != "2025-10-24" {
		t.Errorf("Expected event_date round-trip, got %v", note.EventDate)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := setupNotesRouter(t)

	doJSON(router, "POST", "/api/notes", `{"title":"Grocery List","content":"milk and eggs"}`)
	doJSON(router, "POST", "/api/notes", `{"title":"Workout","content":"run at 6am"}`)

	w := doJSON(router, "GET", "/api/notes/search?q=grocery", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var results []dto.NoteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("Failed to parse results: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Grocery List" {
		t.Errorf("Unexpected results: %+v", results)
	}

	// Empty query returns an empty list, not everything
	w = doJSON(router, "GET", "/api/notes/search", "")
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("Failed to parse results: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result for empty query, got %d", len(results))
	}
}

func TestReorderEndpoint(t *testing.T) {
	router := setupNotesRouter(t)

	for i := 1; i <= 3; i++ {
		doJSON(router, "POST", "/api/notes",
			fmt.Sprintf(`{"title":"note %d","content":"c"}`, i))
	}

	w := doJSON(router, "POST", "/api/notes/reorder", `{"order":[3,1,2]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "GET", "/api/notes", "")
	var notes []dto.NoteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &notes); err != nil {
		t.Fatalf("Failed to parse list: %v", err)
	}

	wantIDs := []int64{3, 1, 2}
	for i, note := range notes {
		if note.ID != wantIDs[i] {
			t.Errorf("Position %d: expected id %d, got %d", i, wantIDs[i], note.ID)
		}
		if note.Position != i {
			t.Errorf("Note %d: expected position %d, got %d", note.ID, i, note.Position)
		}
	}
}

func TestReorderRejectsMissingOrder(t *testing.T) {
	router := setupNotesRouter(t)

	for _, body := range []string{`{}`, `{"order":"not a list"}`} {
		w := doJSON(router, "POST", "/api/notes/reorder", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestInvalidNoteID(t *testing.T) {
	router := setupNotesRouter(t)

	w := doJSON(router, "GET", "/api/notes/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-integer id, got %d", w.Code)
	}
}
