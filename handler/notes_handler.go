package handler

import (
	"errors"
	"log"
	"strconv"

	"main/dto"
	"main/middleware"
	"main/repository"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type NoteHandler struct {
	Service *usecase.NoteService
}

func NewNoteHandler(service *usecase.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

// respondError maps the error taxonomy onto HTTP statuses: validation → 400,
// unknown id → 404, unreachable backend → 503, anything else → 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrValidation):
		middleware.TrackError("validation")
		utils.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		utils.NotFound(c, "note not found")
	case errors.Is(err, repository.ErrUnavailable):
		middleware.TrackError("store")
		log.Printf("backend unavailable: %v", err)
		utils.ServiceUnavailable(c, "storage backend unavailable")
	default:
		middleware.TrackError("internal")
		log.Printf("unexpected error: %v", err)
		utils.InternalError(c, "internal server error")
	}
}

// bindErrorMessage turns a binding failure into the message the original API
// used for the matching case.
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "eventdate":
				return "invalid event_date format"
			case "eventtime":
				return "invalid event_time format"
			case "max":
				return "title exceeds maximum length"
			}
		}
		return "title and content are required"
	}
	return "invalid request body"
}

func noteID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequest(c, "invalid note id")
		return 0, false
	}
	return id, true
}

func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.Service.ListNotes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponses(notes))
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindErrorMessage(err))
		return
	}

	note, err := h.Service.CreateNote(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, dto.ToNoteResponse(note))
}

func (h *NoteHandler) Get(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}

	note, err := h.Service.GetNote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(note))
}

func (h *NoteHandler) Update(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}

	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindErrorMessage(err))
		return
	}

	note, err := h.Service.UpdateNote(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(note))
}

func (h *NoteHandler) Delete(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteNote(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.NoContent(c)
}

func (h *NoteHandler) Search(c *gin.Context) {
	notes, err := h.Service.SearchNotes(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponses(notes))
}

func (h *NoteHandler) Reorder(c *gin.Context) {
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Order == nil {
		utils.BadRequest(c, "order list required")
		return
	}

	if err := h.Service.ReorderNotes(c.Request.Context(), *req.Order); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"status": "ok"})
}
