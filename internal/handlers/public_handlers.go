package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/models"
	"github.com/brieflyhq/briefly/internal/storage"
)

// PublicBrief is the read-only view respondents get. It leaves out the owner.
type PublicBrief struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []models.Question `json:"questions"`
	Style       models.Style      `json:"style"`
	Header      brief.HeaderView  `json:"header"`
}

func newPublicBrief(b *models.Brief) PublicBrief {
	return PublicBrief{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Questions:   b.Questions,
		Style:       b.Style,
		Header:      brief.Header(b.Style),
	}
}

// sharedBrief loads the :id brief for a respondent. Briefs that are not
// publishable are reported as missing.
func (h *Handlers) sharedBrief(c *gin.Context) (*models.Brief, error) {
	b, err := h.Briefs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !brief.Publishable(b) {
		return nil, database.ErrNotFound
	}
	return b, nil
}

func (h *Handlers) sharedBriefJSON(c *gin.Context) (*models.Brief, bool) {
	b, err := h.sharedBrief(c)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brief not found"})
		return nil, false
	}
	if err != nil {
		serverError(c, "Failed to load brief", err)
		return nil, false
	}
	return b, true
}

// GetPublicBrief handles GET /v1/public/briefs/:id.
func (h *Handlers) GetPublicBrief(c *gin.Context) {
	b, ok := h.sharedBriefJSON(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"brief": newPublicBrief(b)})
}

// UploadAsset handles POST /v1/public/briefs/:id/uploads. The returned URL is
// what an upload question's answer stores.
func (h *Handlers) UploadAsset(c *gin.Context) {
	if _, ok := h.sharedBriefJSON(c); !ok {
		return
	}
	obj, ok := h.receiveUpload(c, storage.BriefAssets)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"url":    obj.URL,
		"object": obj,
	})
}

// SubmitResponseInput is a respondent's submission. Answers may be an object
// keyed by question id or a list of {questionId, answer} entries.
type SubmitResponseInput struct {
	RespondentEmail string             `json:"respondentEmail"`
	Answers         json.RawMessage    `json:"answers" binding:"required"`
	ClientInfo      *models.ClientInfo `json:"clientInfo"`
}

// SubmitResponse handles POST /v1/public/briefs/:id/responses. Each call
// inserts a new row.
func (h *Handlers) SubmitResponse(c *gin.Context) {
	b, ok := h.sharedBriefJSON(c)
	if !ok {
		return
	}

	// 1. --- Bind JSON ---
	var input SubmitResponseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	answers, err := brief.DecodeAnswers(input.Answers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answers are not readable"})
		return
	}
	if input.ClientInfo != nil {
		answers.ClientInfo = input.ClientInfo
	}

	// 2. --- Build & Save ---
	h.storeResponse(c, b, brief.Submission{
		RespondentEmail: input.RespondentEmail,
		Answers:         answers.Values,
		ClientInfo:      answers.ClientInfo,
	}, func(r *models.Response) {
		c.JSON(http.StatusCreated, gin.H{
			"message": "Response submitted",
			"id":      r.ID,
		})
	}, func(status int, msg string) {
		c.JSON(status, gin.H{"error": msg})
	})
}

// storeResponse builds the response row with the server-observed metadata and
// inserts it, then calls done or fail.
func (h *Handlers) storeResponse(c *gin.Context, b *models.Brief, sub brief.Submission, done func(*models.Response), fail func(int, string)) {
	seen := brief.Observed{
		UserAgent: c.Request.UserAgent(),
		Language:  c.GetHeader("Accept-Language"),
		Referrer:  c.Request.Referer(),
	}
	resp, err := brief.BuildResponse(b, sub, seen, h.now())
	if err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Responses.Create(c.Request.Context(), resp); err != nil {
		_ = c.Error(err)
		slog.Error("failed to save response", "brief_id", b.ID, "error", err)
		fail(http.StatusInternalServerError, "Failed to save response")
		return
	}
	done(resp)
}
