package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/billing"
	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/middleware"
	"github.com/brieflyhq/briefly/internal/models"
	"github.com/brieflyhq/briefly/internal/storage"
)

// BriefStore is the brief persistence the handlers need.
type BriefStore interface {
	Create(ctx context.Context, b *models.Brief) error
	Get(ctx context.Context, id string) (*models.Brief, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Brief, error)
	Update(ctx context.Context, b *models.Brief) error
	Delete(ctx context.Context, id string) error
}

// ResponseStore is the response persistence the handlers need.
type ResponseStore interface {
	Create(ctx context.Context, r *models.Response) error
	ListByBrief(ctx context.Context, briefID string) ([]models.Response, error)
	Get(ctx context.Context, briefID, id string) (*models.Response, error)
}

// UserStore is the account persistence the handlers need.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ObjectStore accepts uploads into a bucket and reads them back.
type ObjectStore interface {
	Put(ctx context.Context, b storage.Bucket, filename string, r io.Reader) (*storage.Object, error)
	Open(bucket, key string) (io.ReadCloser, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// Suggester drafts questions from a project description.
type Suggester interface {
	SuggestQuestions(ctx context.Context, description string, count int) ([]models.Question, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Briefs    BriefStore
	Responses ResponseStore
	Users     UserStore
	Storage   ObjectStore
	Tokens    TokenIssuer
	Billing   *billing.Service
	AI        Suggester // nil when no Gemini key is configured

	// BaseURL is the public origin used in share links.
	BaseURL string
}

func (h *Handlers) now() time.Time {
	return time.Now().UTC()
}

// ownedBrief loads the :id brief and checks the caller owns it. On failure it
// has already written the response.
func (h *Handlers) ownedBrief(c *gin.Context) (*models.Brief, bool) {
	b, err := h.Briefs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brief not found"})
		return nil, false
	}
	if err != nil {
		serverError(c, "Failed to load brief", err)
		return nil, false
	}
	// Someone else's brief is reported as missing.
	if b.OwnerID != middleware.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brief not found"})
		return nil, false
	}
	return b, true
}

// saveBrief validates and persists b, writing the error response on failure.
func (h *Handlers) saveBrief(c *gin.Context, b *models.Brief) bool {
	if err := brief.Validate(b); err != nil {
		invalid(c, err)
		return false
	}
	if err := h.Briefs.Update(c.Request.Context(), b); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Brief not found"})
			return false
		}
		serverError(c, "Failed to save brief", err)
		return false
	}
	return true
}

// invalid answers a brief.ValidationError with 422 and its problem list.
func invalid(c *gin.Context, err error) {
	var ve *brief.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Brief is invalid", "problems": ve.Problems})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// serverError logs err and answers with a generic message.
func serverError(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	slog.Error(message, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
