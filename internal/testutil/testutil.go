package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/models"
)

// NewDB opens a fresh SQLite database in a temp dir with the full schema.
func NewDB(t *testing.T) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "briefly.db")
	db, err := database.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// CreateTestUser registers a user with password "password123".
func CreateTestUser(t *testing.T, db *database.DB, email string) *models.User {
	t.Helper()

	var pw models.Password
	if err := pw.Set("password123"); err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: pw.Hash,
		FullName:     "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := database.NewUserStore(db).Create(context.Background(), u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// CreateTestBrief stores a publishable two-question brief owned by ownerID.
func CreateTestBrief(t *testing.T, db *database.DB, ownerID string) *models.Brief {
	t.Helper()

	now := time.Now().UTC()
	b := &models.Brief{
		ID:          uuid.NewString(),
		Title:       "Website redesign",
		Description: "Tell us about your project",
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionShort, Question: "Company name?", Required: true},
			{ID: "q2", Type: models.QuestionLong, Question: "What are your goals?"},
		},
		Style:     models.DefaultStyle(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := database.NewBriefStore(db).Create(context.Background(), b); err != nil {
		t.Fatalf("Failed to create test brief: %v", err)
	}
	return b
}

// MakeRequest creates an HTTP test request with a JSON body.
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var reader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// DecodeJSON unmarshals a recorded response body.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}
