package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/export"
	"github.com/brieflyhq/briefly/internal/models"
)

// ResponseView is a stored response with its answers laid out in question
// order.
type ResponseView struct {
	models.Response
	Entries []brief.AnswerEntry `json:"entries"`
}

func viewResponse(b *models.Brief, r models.Response) ResponseView {
	answers := brief.Answers{Values: r.Answers, ClientInfo: r.ClientInfo}
	return ResponseView{Response: r, Entries: answers.Ordered(b.Questions)}
}

// ListResponses handles GET /v1/briefs/:id/responses, newest first.
func (h *Handlers) ListResponses(c *gin.Context) {
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}
	responses, err := h.Responses.ListByBrief(c.Request.Context(), b.ID)
	if err != nil {
		serverError(c, "Failed to load responses", err)
		return
	}

	views := make([]ResponseView, len(responses))
	for i, r := range responses {
		views[i] = viewResponse(b, r)
	}
	c.JSON(http.StatusOK, gin.H{
		"brief":     gin.H{"id": b.ID, "title": b.Title, "questions": b.Questions},
		"responses": views,
	})
}

// GetResponse handles GET /v1/briefs/:id/responses/:responseId.
func (h *Handlers) GetResponse(c *gin.Context) {
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}
	r, err := h.Responses.Get(c.Request.Context(), b.ID, c.Param("responseId"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Response not found"})
		return
	}
	if err != nil {
		serverError(c, "Failed to load response", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": viewResponse(b, *r)})
}

// ExportResponses handles GET /v1/briefs/:id/export?format=csv|xlsx.
func (h *Handlers) ExportResponses(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}
	responses, err := h.Responses.ListByBrief(c.Request.Context(), b.ID)
	if err != nil {
		serverError(c, "Failed to load responses", err)
		return
	}

	data, err := export.BuildTable(b, responses).Render(format)
	if err != nil {
		serverError(c, "Failed to build export", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(b, format)))
	c.Data(http.StatusOK, format.ContentType(), data)
}
