package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brieflyhq/briefly/internal/models"
)

// PlanStore memoizes processor plans by catalog name.
type PlanStore struct {
	db *DB
}

func NewPlanStore(db *DB) *PlanStore {
	return &PlanStore{db: db}
}

// GetByName returns the memoized plan, or ErrNotFound.
func (s *PlanStore) GetByName(ctx context.Context, name string) (*models.SubscriptionPlan, error) {
	return s.getBy(ctx, "name", name)
}

// GetByExternalID finds the memo holding a PayPal plan id.
func (s *PlanStore) GetByExternalID(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	return s.getBy(ctx, "external_plan_id", planID)
}

func (s *PlanStore) getBy(ctx context.Context, column, value string) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	var interval, features string
	err := s.db.queryRow(ctx, `
		SELECT name, description, price, currency, billing_interval, external_plan_id,
			external_product_id, features, created_at, updated_at
		FROM subscription_plans WHERE `+column+` = ?`, value).
		Scan(&p.Name, &p.Description, &p.Price, &p.Currency, &interval, &p.ExternalPlanID,
			&p.ExternalProductID, &features, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan by %s: %w", column, err)
	}
	p.Interval = models.BillingInterval(interval)
	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		p.Features = []string{}
	}
	return &p, nil
}

// Upsert stores the plan, overwriting any previous memo for the same name.
func (s *PlanStore) Upsert(ctx context.Context, p *models.SubscriptionPlan) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Features == nil {
		p.Features = []string{}
	}
	features, err := json.Marshal(p.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	_, err = s.db.exec(ctx, `
		INSERT INTO subscription_plans (name, description, price, currency, billing_interval,
			external_plan_id, external_product_id, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`+s.db.upsert("name",
		"description", "price", "currency", "billing_interval",
		"external_plan_id", "external_product_id", "features", "updated_at"),
		p.Name, p.Description, p.Price.String(), p.Currency, string(p.Interval),
		p.ExternalPlanID, p.ExternalProductID, string(features), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}
	return nil
}
