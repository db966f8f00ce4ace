package handler

import (
	"log"
	"time"

	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	Store repository.NoteStore
	LLM   *services.LLMService
}

func NewHealthHandler(store repository.NoteStore, llm *services.LLMService) *HealthHandler {
	return &HealthHandler{Store: store, LLM: llm}
}

// Status reports backend reachability, feature availability and basic system
// stats. It always answers 200; degraded features show up in the payload.
func (h *HealthHandler) Status(c *gin.Context) {
	databaseUp := true
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		log.Printf("health: store ping failed: %v", err)
		databaseUp = false
	}

	utils.Success(c, gin.H{
		"status":  "ok",
		"message": "notes service is running",
		"backend": h.Store.Name(),
		"time":    time.Now().UTC().Format(time.RFC3339),
		"features": gin.H{
			"database":        databaseUp,
			"ai_services":     h.LLM.Enabled(),
			"translation":     h.LLM.Enabled(),
			"note_management": true,
		},
		"system": gin.H{
			"cpu_percent":    utils.GetCPUUsage(),
			"memory_percent": utils.GetMemoryUsage(),
		},
	})
}
