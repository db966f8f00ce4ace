package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the uniform failure body: {"error": "<message>"}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Success responses

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error responses

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &ErrorResponse{Error: message})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, &ErrorResponse{Error: message})
}

func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: message})
}

func ServiceUnavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, &ErrorResponse{Error: message})
}
