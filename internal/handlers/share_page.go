package handlers

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/models"
	"github.com/brieflyhq/briefly/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

var shareTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// maxFormMemory bounds the multipart parts kept in memory; larger files
// spill to temp files.
const maxFormMemory = 8 << 20

type sharePage struct {
	PublicBrief
	Error string
}

func (h *Handlers) renderPage(c *gin.Context, status int, name string, data any) {
	c.Render(status, render.HTML{Template: shareTemplates, Name: name, Data: data})
}

// loadSharePage resolves the brief behind /share/:id, rendering the missing
// page when there is none to show.
func (h *Handlers) loadSharePage(c *gin.Context) (*models.Brief, bool) {
	b, err := h.sharedBrief(c)
	if errors.Is(err, database.ErrNotFound) {
		h.renderPage(c, http.StatusNotFound, "missing", nil)
		return nil, false
	}
	if err != nil {
		_ = c.Error(err)
		slog.Error("failed to load shared brief", "brief_id", c.Param("id"), "error", err)
		h.renderPage(c, http.StatusInternalServerError, "missing", nil)
		return nil, false
	}
	return b, true
}

// ShareForm handles GET /share/:id, the public submission form.
func (h *Handlers) ShareForm(c *gin.Context) {
	b, ok := h.loadSharePage(c)
	if !ok {
		return
	}
	h.renderPage(c, http.StatusOK, "share", sharePage{PublicBrief: newPublicBrief(b)})
}

// ShareSubmit handles POST /share/:id from the HTML form. Upload questions
// arrive as file parts and are stored before the response is inserted.
func (h *Handlers) ShareSubmit(c *gin.Context) {
	b, ok := h.loadSharePage(c)
	if !ok {
		return
	}
	page := sharePage{PublicBrief: newPublicBrief(b)}
	fail := func(status int, msg string) {
		page.Error = msg
		h.renderPage(c, status, "share", page)
	}

	// 1. --- Parse the form ---
	var uploads int64
	for _, q := range b.Questions {
		if q.Type == models.QuestionUpload {
			uploads++
		}
	}
	limitBody(c, uploads*storage.BriefAssets.MaxBytes)
	err := c.Request.ParseMultipartForm(maxFormMemory)
	if bodyTooLarge(err) {
		fail(http.StatusRequestEntityTooLarge, "The form is too large to submit.")
		return
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		fail(http.StatusBadRequest, "The form could not be read.")
		return
	}
	form := c.Request.PostForm

	// 2. --- Collect answers ---
	answers := make(map[string]models.Answer, len(b.Questions))
	for _, q := range b.Questions {
		switch q.Type {
		case models.QuestionCheckbox:
			if values, ok := form[q.ID]; ok {
				answers[q.ID] = models.ChoiceAnswer(values)
			}
		case models.QuestionUpload:
			url, ok := h.formUpload(c, q.ID, fail)
			if !ok {
				return
			}
			if url != "" {
				answers[q.ID] = models.TextAnswer(url)
			}
		default:
			answers[q.ID] = models.TextAnswer(form.Get(q.ID))
		}
	}

	// 3. --- Build & Save ---
	h.storeResponse(c, b, brief.Submission{
		RespondentEmail: form.Get("respondentEmail"),
		Answers:         answers,
		ClientInfo: &models.ClientInfo{
			Timezone: strings.TrimSpace(form.Get("_timezone")),
			Viewport: strings.TrimSpace(form.Get("_viewport")),
		},
	}, func(*models.Response) {
		h.renderPage(c, http.StatusCreated, "thanks", page)
	}, fail)
}

// formUpload stores the file part named field, returning "" when the
// respondent attached nothing.
func (h *Handlers) formUpload(c *gin.Context, field string, fail func(int, string)) (string, bool) {
	file, header, err := c.Request.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", true
	}
	if err != nil {
		fail(http.StatusBadRequest, "An attachment could not be read.")
		return "", false
	}
	defer file.Close()

	obj, err := h.Storage.Put(c.Request.Context(), storage.BriefAssets, header.Filename, file)
	switch {
	case errors.Is(err, storage.ErrEmpty):
		return "", true
	case errors.Is(err, storage.ErrTooLarge):
		fail(http.StatusRequestEntityTooLarge, "Attachments must be 10MB or smaller.")
		return "", false
	case err != nil:
		_ = c.Error(err)
		slog.Error("failed to store attachment", "field", field, "error", err)
		fail(http.StatusInternalServerError, "An attachment could not be saved.")
		return "", false
	}
	return obj.URL, true
}
