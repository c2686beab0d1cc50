package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/models"
)

// BriefStore persists briefs.
type BriefStore struct {
	db *DB
}

func NewBriefStore(db *DB) *BriefStore {
	return &BriefStore{db: db}
}

// Create inserts a new brief. ID and timestamps must already be set.
func (s *BriefStore) Create(ctx context.Context, b *models.Brief) error {
	questions, style, err := encodeBrief(b)
	if err != nil {
		return err
	}
	_, err = s.db.exec(ctx, `
		INSERT INTO briefs (id, owner_id, title, description, questions, style, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Title, b.Description, questions, style, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert brief: %w", err)
	}
	return nil
}

// Get loads one brief. Malformed questions or style columns are replaced by
// defaults and logged.
func (s *BriefStore) Get(ctx context.Context, id string) (*models.Brief, error) {
	row := s.db.queryRow(ctx, `
		SELECT id, owner_id, title, description, questions, style, created_at, updated_at
		FROM briefs WHERE id = ?`, id)

	var b models.Brief
	var questions, style string
	err := row.Scan(&b.ID, &b.OwnerID, &b.Title, &b.Description, &questions, &style, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get brief: %w", err)
	}
	decodeBrief(&b, questions, style)
	return &b, nil
}

// ListByOwner returns the owner's briefs, newest first, each with its
// response count.
func (s *BriefStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Brief, error) {
	rows, err := s.db.query(ctx, `
		SELECT b.id, b.owner_id, b.title, b.description, b.questions, b.style, b.created_at, b.updated_at,
			COUNT(r.id) AS response_count
		FROM briefs b
		LEFT JOIN responses r ON r.brief_id = b.id
		WHERE b.owner_id = ?
		GROUP BY b.id, b.owner_id, b.title, b.description, b.questions, b.style, b.created_at, b.updated_at
		ORDER BY b.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	defer rows.Close()

	briefs := []models.Brief{}
	for rows.Next() {
		var b models.Brief
		var questions, style string
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Title, &b.Description, &questions, &style,
			&b.CreatedAt, &b.UpdatedAt, &b.ResponseCount); err != nil {
			return nil, fmt.Errorf("scan brief: %w", err)
		}
		decodeBrief(&b, questions, style)
		briefs = append(briefs, b)
	}
	return briefs, rows.Err()
}

// Update replaces the editable fields of a brief and bumps updated_at.
// Concurrent saves are last-write-wins.
func (s *BriefStore) Update(ctx context.Context, b *models.Brief) error {
	questions, style, err := encodeBrief(b)
	if err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC()
	res, err := s.db.exec(ctx, `
		UPDATE briefs SET title = ?, description = ?, questions = ?, style = ?, updated_at = ?
		WHERE id = ?`,
		b.Title, b.Description, questions, style, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update brief: %w", err)
	}
	return requireRow(res)
}

// Delete removes the brief's responses, then the brief. The two deletes are
// not wrapped in a transaction; a failure after the first leaves the brief
// without responses.
func (s *BriefStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.exec(ctx, `DELETE FROM responses WHERE brief_id = ?`, id); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	res, err := s.db.exec(ctx, `DELETE FROM briefs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete brief: %w", err)
	}
	return requireRow(res)
}

func encodeBrief(b *models.Brief) (string, string, error) {
	questions, err := brief.EncodeQuestions(b.Questions)
	if err != nil {
		return "", "", fmt.Errorf("encode questions: %w", err)
	}
	style, err := brief.EncodeStyle(b.Style)
	if err != nil {
		return "", "", fmt.Errorf("encode style: %w", err)
	}
	return string(questions), string(style), nil
}

func decodeBrief(b *models.Brief, questions, style string) {
	var ok bool
	if b.Questions, ok = brief.DecodeQuestions([]byte(questions)); !ok {
		slog.Warn("unreadable brief questions, using empty list", "brief_id", b.ID)
	}
	if b.Style, ok = brief.DecodeStyle([]byte(style)); !ok {
		slog.Warn("unreadable brief style, using defaults", "brief_id", b.ID)
	}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
