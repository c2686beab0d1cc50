package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuggestInput is a project description to draft questions for.
type SuggestInput struct {
	Description string `json:"description" binding:"required,max=4000"`
	Count       int    `json:"count" binding:"omitempty,min=1,max=12"`
}

// SuggestQuestions handles POST /v1/briefs/suggest.
func (h *Handlers) SuggestQuestions(c *gin.Context) {
	// 1. The assistant is optional
	if h.AI == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Question suggestions are not configured"})
		return
	}

	// 2. Parse Input
	var input SuggestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. Call the AI Service
	questions, err := h.AI.SuggestQuestions(c.Request.Context(), input.Description, input.Count)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI Service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}
