package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brieflyhq/briefly/internal/models"
)

// SubscriptionStore persists the one-per-user subscription record.
type SubscriptionStore struct {
	db *DB
}

func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionColumns = `user_id, subscription_id, plan_id, status, plan_name, billing_interval,
	next_billing_time, last_event_at, created_at, updated_at`

// GetByUser returns the user's record.
func (s *SubscriptionStore) GetByUser(ctx context.Context, userID string) (*models.UserSubscription, error) {
	return s.getBy(ctx, "user_id", userID)
}

// GetBySubscriptionID returns the record currently holding the processor
// subscription id.
func (s *SubscriptionStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.UserSubscription, error) {
	return s.getBy(ctx, "subscription_id", subscriptionID)
}

// Upsert writes the record keyed by user_id. Redelivering the same state
// leaves exactly one row.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub *models.UserSubscription) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	var lastEvent sql.NullTime
	if !sub.LastEventAt.IsZero() {
		lastEvent = sql.NullTime{Time: sub.LastEventAt.UTC(), Valid: true}
	}

	_, err := s.db.exec(ctx, `
		INSERT INTO user_subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`+s.db.upsert("user_id",
		"subscription_id", "plan_id", "status", "plan_name", "billing_interval",
		"next_billing_time", "last_event_at", "updated_at"),
		sub.UserID, sub.SubscriptionID, sub.PlanID, string(sub.Status), sub.PlanName, string(sub.Interval),
		nullTime(sub.NextBillingTime), lastEvent, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) getBy(ctx context.Context, column, value string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	var status, interval string
	var next, lastEvent sql.NullTime
	err := s.db.queryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM user_subscriptions WHERE `+column+` = ?
		ORDER BY updated_at DESC LIMIT 1`, value).
		Scan(&sub.UserID, &sub.SubscriptionID, &sub.PlanID, &status, &sub.PlanName, &interval,
			&next, &lastEvent, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription by %s: %w", column, err)
	}
	sub.Status = models.SubscriptionStatus(status)
	sub.Interval = models.BillingInterval(interval)
	if next.Valid {
		t := next.Time
		sub.NextBillingTime = &t
	}
	if lastEvent.Valid {
		sub.LastEventAt = lastEvent.Time
	}
	return &sub, nil
}
