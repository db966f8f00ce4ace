package handler

import (
	"errors"
	"log"
	"strings"

	"main/dto"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type LLMHandler struct {
	Notes *usecase.NoteService
	LLM   *services.LLMService
}

func NewLLMHandler(notes *usecase.NoteService, llm *services.LLMService) *LLMHandler {
	return &LLMHandler{Notes: notes, LLM: llm}
}

// respondLLMError is respondError for completion-endpoint failures, so a 503
// from the language model is not reported as a storage outage.
func respondLLMError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrUnavailable) {
		middleware.TrackError("llm")
		log.Printf("completion endpoint unavailable: %v", err)
		utils.ServiceUnavailable(c, "language model unavailable")
		return
	}
	respondError(c, err)
}

// Translate renders an existing note's title and content into the requested
// language. The note itself is not modified.
func (h *LLMHandler) Translate(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}

	var req dto.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "target_language is required")
		return
	}

	note, err := h.Notes.GetNote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	title, err := h.LLM.Translate(c.Request.Context(), note.Title, req.TargetLanguage)
	if err != nil {
		respondLLMError(c, err)
		return
	}
	content, err := h.LLM.Translate(c.Request.Context(), note.Content, req.TargetLanguage)
	if err != nil {
		respondLLMError(c, err)
		return
	}

	utils.Success(c, dto.TranslateResponse{
		TranslatedTitle:   title,
		TranslatedContent: content,
	})
}

// Generate runs structured extraction over freeform input and stores the
// result as a new note. When the model output cannot be parsed the raw text
// is stored as the note content and a warning is returned instead of failing
// the request.
func (h *LLMHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Input) == "" {
		utils.BadRequest(c, "input is required")
		return
	}

	structured, raw, err := h.LLM.ExtractNote(c.Request.Context(), req.Input, req.Language)
	if err != nil {
		respondLLMError(c, err)
		return
	}

	if structured == nil {
		note, err := h.Notes.CreateNote(c.Request.Context(), &dto.CreateNoteRequest{
			Title:   fallbackTitle(req.Input),
			Content: &raw,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		utils.Created(c, dto.GenerateResponse{
			Note:    dto.ToNoteResponse(note),
			Warning: "structured extraction failed; raw model output stored as content",
		})
		return
	}

	// The model does not reliably honor the length instruction; truncate
	// instead of failing the request over an overlong title.
	title := truncateTitle(strings.TrimSpace(structured.Title))
	if title == "" {
		title = fallbackTitle(req.Input)
	}
	note, err := h.Notes.CreateNote(c.Request.Context(), &dto.CreateNoteRequest{
		Title:     title,
		Content:   &structured.Notes,
		Tags:      structured.Tags,
		EventDate: structured.Date,
		EventTime: structured.Time,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Created(c, dto.GenerateResponse{
		Note:           dto.ToNoteResponse(note),
		StructuredData: structured,
	})
}

// fallbackTitle derives a title from the user input when extraction yields
// none.
func fallbackTitle(input string) string {
	title := truncateTitle(strings.TrimSpace(input))
	if title == "" {
		return "Generated note"
	}
	return title
}

func truncateTitle(title string) string {
	if runes := []rune(title); len(runes) > usecase.MaxTitleLength {
		return string(runes[:usecase.MaxTitleLength])
	}
	return title
}
