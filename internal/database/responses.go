package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/models"
)

// ResponseStore persists submitted responses. Rows are never updated.
type ResponseStore struct {
	db *DB
}

func NewResponseStore(db *DB) *ResponseStore {
	return &ResponseStore{db: db}
}

// Create inserts one response. Answers and client info are stored together
// as a single JSON object.
func (s *ResponseStore) Create(ctx context.Context, r *models.Response) error {
	answers, err := brief.EncodeAnswers(r.Answers, r.ClientInfo)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.exec(ctx, `
		INSERT INTO responses (id, brief_id, respondent_email, answers, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.BriefID, nullString(r.RespondentEmail), string(answers), r.SubmittedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// ListByBrief returns the brief's responses, newest first.
func (s *ResponseStore) ListByBrief(ctx context.Context, briefID string) ([]models.Response, error) {
	rows, err := s.db.query(ctx, `
		SELECT id, brief_id, respondent_email, answers, submitted_at
		FROM responses WHERE brief_id = ?
		ORDER BY submitted_at DESC`, briefID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *r)
	}
	return responses, rows.Err()
}

// Get loads one response of the given brief.
func (s *ResponseStore) Get(ctx context.Context, briefID, id string) (*models.Response, error) {
	row := s.db.queryRow(ctx, `
		SELECT id, brief_id, respondent_email, answers, submitted_at
		FROM responses WHERE brief_id = ? AND id = ?`, briefID, id)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// CountByBrief counts the responses of a brief.
func (s *ResponseStore) CountByBrief(ctx context.Context, briefID string) (int, error) {
	var n int
	err := s.db.queryRow(ctx, `SELECT COUNT(*) FROM responses WHERE brief_id = ?`, briefID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanResponse decodes whichever answers shape the row holds. An unreadable
// payload yields an empty answer set and a warning.
func scanResponse(sc scanner) (*models.Response, error) {
	var r models.Response
	var email sql.NullString
	var raw string
	if err := sc.Scan(&r.ID, &r.BriefID, &email, &raw, &r.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan response: %w", err)
	}
	if email.Valid {
		r.RespondentEmail = &email.String
	}

	answers, err := brief.DecodeAnswers([]byte(raw))
	if err != nil {
		slog.Warn("unreadable response answers", "response_id", r.ID, "brief_id", r.BriefID, "error", err)
		answers = brief.Answers{Values: map[string]models.Answer{}}
	}
	r.Answers = answers.Values
	r.ClientInfo = answers.ClientInfo
	return &r, nil
}
