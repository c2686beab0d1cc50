package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/middleware"
	"github.com/brieflyhq/briefly/internal/models"
	"github.com/brieflyhq/briefly/internal/storage"
)

// BriefInput is the body of create and full-replace saves.
type BriefInput struct {
	Title       string            `json:"title" binding:"max=200"`
	Description string            `json:"description" binding:"max=5000"`
	Questions   []models.Question `json:"questions"`
	Style       *models.Style     `json:"style"`
}

// apply copies the input onto b. Questions without an id get one; a missing
// style keeps the current one.
func (in *BriefInput) apply(b *models.Brief) {
	b.Title = strings.TrimSpace(in.Title)
	b.Description = in.Description
	now := b.UpdatedAt
	qs := make([]models.Question, len(in.Questions))
	for i, q := range in.Questions {
		if q.ID == "" {
			q.ID = brief.NewQuestionID(now)
		}
		qs[i] = q
	}
	b.Questions = qs
	if in.Style != nil {
		b.Style = *in.Style
	}
}

// CreateBrief handles POST /v1/briefs.
func (h *Handlers) CreateBrief(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input BriefInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Build the Brief ---
	now := h.now()
	b := &models.Brief{
		ID:        uuid.NewString(),
		OwnerID:   middleware.UserID(c),
		Style:     models.DefaultStyle(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.apply(b)
	if err := brief.Validate(b); err != nil {
		invalid(c, err)
		return
	}

	// 3. --- Save ---
	if err := h.Briefs.Create(c.Request.Context(), b); err != nil {
		serverError(c, "Failed to create brief", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Brief created",
		"brief":   b,
	})
}

// GetBrief handles GET /v1/briefs/:id, the builder view.
func (h *Handlers) GetBrief(c *gin.Context) {
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"brief":       b,
		"header":      brief.Header(b.Style),
		"publishable": brief.Publishable(b),
	})
}

// UpdateBrief handles PUT /v1/briefs/:id. The body replaces title,
// description, questions and (when sent) style.
func (h *Handlers) UpdateBrief(c *gin.Context) {
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}

	var input BriefInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.UpdatedAt = h.now()
	input.apply(b)

	if !h.saveBrief(c, b) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Brief saved",
		"brief":   b,
	})
}

// DeleteBrief handles DELETE /v1/briefs/:id. Responses go first, then the
// brief.
func (h *Handlers) DeleteBrief(c *gin.Context) {
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}
	if err := h.Briefs.Delete(c.Request.Context(), b.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Brief not found"})
			return
		}
		serverError(c, "Failed to delete brief", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Brief deleted"})
}

// ShareBrief handles GET /v1/briefs/:id/share. Only publishable briefs get a
// link.
func (h *Handlers) ShareBrief(c *gin.Context) {
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}
	if !brief.Publishable(b) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Add a title and at least one question before sharing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": brief.ShareURL(h.BaseURL, b.ID)})
}

// UploadLogo handles POST /v1/briefs/:id/logo. The image goes to the
// branding bucket and becomes style.logo.
func (h *Handlers) UploadLogo(c *gin.Context) {
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}

	// 1. Get the file from the request
	obj, ok := h.receiveUpload(c, storage.Branding)
	if !ok {
		return
	}

	// 2. Point the style at it
	b.Style.Logo = obj.URL
	b.UpdatedAt = h.now()
	if !h.saveBrief(c, b) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":   obj.URL,
		"style": b.Style,
	})
}
