package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionPlan defines the model for the 'subscription_plans' table.
// It memoizes the processor's product and plan ids for a catalog plan name.
type SubscriptionPlan struct {
	Name              string          `json:"name" db:"name"`
	Description       string          `json:"description" db:"description"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Currency          string          `json:"currency" db:"currency"`
	Interval          BillingInterval `json:"interval" db:"billing_interval"`
	ExternalPlanID    string          `json:"externalPlanId" db:"external_plan_id"`
	ExternalProductID string          `json:"externalProductId" db:"external_product_id"`
	Features          []string        `json:"features" db:"features"` // Stored as JSON text
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}
