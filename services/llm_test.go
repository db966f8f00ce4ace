package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"main/config"
	"main/repository"
)

func newFakeCompletion(t *testing.T, status int, content string) (*LLMService, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		requests = append(requests, body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	svc := NewLLMService(config.LLMConfig{
		Endpoint: server.URL,
		Model:    "openai/gpt-4.1-mini",
		Token:    "test-token",
		Timeout:  5 * time.Second,
	})
	svc.ReferenceDate = func() time.Time {
		return time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC)
	}
	return svc, &requests
}

func TestTranslateEmptyInputSkipsNetwork(t *testing.T) {
	svc, requests := newFakeCompletion(t, http.StatusOK, "should not be called")

	result, err := svc.Translate(context.Background(), "   ", "French")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result != "" {
		t.Errorf("Expected empty output, got %q", result)
	}
	if len(*requests) != 0 {
		t.Errorf("Expected no network call, saw %d", len(*requests))
	}
}

func TestTranslate(t *testing.T) {
	svc, requests := newFakeCompletion(t, http.StatusOK, "Bonjour")

	result, err := svc.Translate(context.Background(), "Hello", "French")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result != "Bonjour" {
		t.Errorf("Expected Bonjour, got %q", result)
	}

	req := (*requests)[0]
	if temp := req["temperature"]; temp != 0.2 {
		t.Errorf("Expected low temperature for determinism, got %v", temp)
	}
	messages := req["messages"].([]any)
	prompt := messages[0].(map[string]any)["content"].(string)
	if !strings.Contains(prompt, "Translate the following text into French") {
		t.Errorf("Prompt missing target language: %q", prompt)
	}
}

func TestTranslateMissingToken(t *testing.T) {
	svc := NewLLMService(config.LLMConfig{Endpoint: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := svc.Translate(context.Background(), "Hello", "French")
	if !errors.Is(err, repository.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestTranslateServerError(t *testing.T) {
	svc, _ := newFakeCompletion(t, http.StatusBadGateway, "")

	_, err := svc.Translate(context.Background(), "Hello", "French")
	if !errors.Is(err, repository.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestExtractNote(t *testing.T) {
	svc, requests := newFakeCompletion(t, http.StatusOK,
		`{"Title":"Badminton at PolyU","Notes":"Play badminton tomorrow at 5pm at PolyU.",`+
			`"Tags":["badminton","sports"],"Date":"2025-10-25","Time":"17:00"}`)

	structured, raw, err := svc.ExtractNote(context.Background(), "Badminton tmr 5pm @polyu", "English")
	if err != nil {
		t.Fatalf("ExtractNote failed: %v", err)
	}
	if structured == nil {
		t.Fatalf("Expected structured result, raw: %q", raw)
	}

	if structured.Date != "2025-10-25" || structured.Time != "17:00" {
		t.Errorf("Unexpected date/time: %q %q", structured.Date, structured.Time)
	}
	if structured.Title != "Badminton at PolyU" {
		t.Errorf("Unexpected title: %q", structured.Title)
	}

	// The prompt carries the fixed reference date and language.
	messages := (*requests)[0]["messages"].([]any)
	system := messages[0].(map[string]any)["content"].(string)
	if !strings.Contains(system, "Today's date is 2025-10-24") {
		t.Error("Prompt missing reference date")
	}
	if !strings.Contains(system, `Date: "2025-10-25", Time: "17:00"`) {
		t.Error("Prompt missing tomorrow example")
	}
	if !strings.Contains(system, "the language: English") {
		t.Error("Prompt missing output language")
	}
	user := messages[1].(map[string]any)["content"].(string)
	if user != "Badminton tmr 5pm @polyu" {
		t.Errorf("Unexpected user message: %q", user)
	}
}

func TestExtractNoteNormalizesFields(t *testing.T) {
	svc, _ := newFakeCompletion(t, http.StatusOK,
		"```json\n"+`{"Title":"Busy Day","Notes":"Lots of things.",`+
			`"Tags":["a","b","c","d","e"],"Date":"not a date","Time":"17:00:30"}`+"\n```")

	structured, _, err := svc.ExtractNote(context.Background(), "busy day", "")
	if err != nil {
		t.Fatalf("ExtractNote failed: %v", err)
	}
	if structured == nil {
		t.Fatal("Expected fenced JSON to parse")
	}

	if len(structured.Tags) != 3 {
		t.Errorf("Expected tags capped at 3, got %v", structured.Tags)
	}
	if structured.Date != "" {
		t.Errorf("Expected invalid date dropped, got %q", structured.Date)
	}
	if structured.Time != "17:00" {
		t.Errorf("Expected seconds stripped, got %q", structured.Time)
	}
}

func TestExtractNoteMalformedOutput(t *testing.T) {
	svc, _ := newFakeCompletion(t, http.StatusOK, "Sorry, I cannot produce JSON today.")

	structured, raw, err := svc.ExtractNote(context.Background(), "badminton tmr", "English")
	if err != nil {
		t.Fatalf("ExtractNote must not fail on malformed output: %v", err)
	}
	if structured != nil {
		t.Errorf("Expected nil structured result, got %+v", structured)
	}
	if raw != "Sorry, I cannot produce JSON today." {
		t.Errorf("Expected raw output preserved, got %q", raw)
	}
}
