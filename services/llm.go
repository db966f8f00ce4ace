package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"main/config"
	"main/dto"
	"main/middleware"
	"main/repository"
	"main/utils"
)

// LLMService wraps a single OpenAI-compatible chat-completion endpoint and
// exposes two capabilities: free-text translation and structured note
// extraction. Calls are stateless and never retried.
type LLMService struct {
	endpoint string
	model    string
	token    string
	client   *http.Client

	// ReferenceDate supplies "today" for resolving relative date expressions
	// in the extraction prompt. Overridden in tests for determinism.
	ReferenceDate func() time.Time
}

func NewLLMService(cfg config.LLMConfig) *LLMService {
	return &LLMService{
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		model:         cfg.Model,
		token:         cfg.Token,
		client:        &http.Client{Timeout: cfg.Timeout},
		ReferenceDate: time.Now,
	}
}

// Enabled reports whether the completion endpoint is configured.
func (s *LLMService) Enabled() bool { return s.token != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *LLMService) complete(ctx context.Context, messages []chatMessage, temperature float64) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("%w: GITHUB_TOKEN is not set", repository.ErrUnavailable)
	}

	payload, err := json.Marshal(chatRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: temperature,
		TopP:        1.0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", repository.ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: completion endpoint responded %d: %s",
			repository.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", repository.ErrUnavailable, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: completion error: %s", repository.ErrUnavailable, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", repository.ErrUnavailable)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Translate renders text into targetLanguage. Empty input short-circuits to
// an empty result without a network call; the prompt only asks the model to
// behave that way, which is not reliable enough on its own.
func (s *LLMService) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	prompt := fmt.Sprintf(
		"You are a professional translator. Translate the following text into %s.\n"+
			"Return only the translated text and nothing else (no explanations, no questions, no extra markup).\n"+
			"If the input is empty, return an empty string.\n\nText:\n%s",
		targetLanguage, text)

	result, err := s.complete(ctx, []chatMessage{{Role: "user", Content: prompt}}, 0.2)
	if err != nil {
		middleware.TrackLLMRequest("translate", "failure")
		return "", err
	}
	middleware.TrackLLMRequest("translate", "success")
	return result, nil
}

func (s *LLMService) extractionPrompt(language string) string {
	today := s.ReferenceDate()
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	return fmt.Sprintf(`Extract the user's notes into the following structured fields:
1. Title: A concise title of the notes less than 5 words
2. Notes: The notes based on user input written in full sentences.
3. Tags (A list): At most 3 Keywords or tags that categorize the content of the notes.
4. Date: Extract or calculate the date in YYYY-MM-DD format. Handle these cases:
   - Relative dates: "tmr"/"tomorrow" = next day, "后天"/"day after tomorrow" = day after next, "下周一"/"next monday" = calculate next monday
   - Short dates: "11.2" or "11/2" = "%d-11-02" (current year), "3.15" = "%d-03-15"
   - Full dates: "2025-12-25" = keep as is
   - Today's date is %s. If no date mentioned, return null.
5. Time: Extract the time in HH:MM format (24-hour) if mentioned. Convert "5pm"="17:00", "上午9点"="09:00". If no time mentioned, return null.
Output in JSON format without `+"```json"+`. Output title and notes in the language: %s.
Examples:
Input: "Badminton tmr 5pm @polyu" → Date: "%s", Time: "17:00"
Input: "会议 11.2 下午3点" → Date: "%d-11-02", Time: "15:00"
Input: "后天上午开会" → Date: "%s", Time: null
Output format: {
	"Title": "Meeting Title",
	"Notes": "Full sentence description.",
	"Tags": ["tag1", "tag2"],
	"Date": "%s",
	"Time": "17:00"
}`,
		today.Year(), today.Year(),
		today.Format("2006-01-02"),
		language,
		tomorrow.Format("2006-01-02"),
		today.Year(),
		dayAfter.Format("2006-01-02"),
		tomorrow.Format("2006-01-02"))
}

// ExtractNote turns freeform text into structured note fields. When the model
// output is not valid JSON the raw output is returned instead of an error so
// the caller can degrade gracefully and keep the user's text.
func (s *LLMService) ExtractNote(ctx context.Context, text, language string) (*dto.StructuredNote, string, error) {
	if language == "" {
		language = "English"
	}

	raw, err := s.complete(ctx, []chatMessage{
		{Role: "system", Content: s.extractionPrompt(language)},
		{Role: "user", Content: text},
	}, 1.0)
	if err != nil {
		middleware.TrackLLMRequest("extract", "failure")
		return nil, "", err
	}
	middleware.TrackLLMRequest("extract", "success")

	structured, ok := parseStructured(raw)
	if !ok {
		return nil, raw, nil
	}
	return structured, raw, nil
}

// parseStructured decodes the model output, stripping markdown fences some
// models insist on adding, and normalizes the extracted fields.
func parseStructured(raw string) (*dto.StructuredNote, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var structured dto.StructuredNote
	if err := json.Unmarshal([]byte(cleaned), &structured); err != nil {
		return nil, false
	}
	if strings.TrimSpace(structured.Title) == "" && strings.TrimSpace(structured.Notes) == "" {
		return nil, false
	}

	if len(structured.Tags) > 3 {
		structured.Tags = structured.Tags[:3]
	}
	if !utils.ValidateEventDate(structured.Date) {
		structured.Date = ""
	}
	if normalized, ok := utils.NormalizeEventTime(structured.Time); ok {
		structured.Time = normalized
	} else {
		structured.Time = ""
	}
	return &structured, true
}
