package models

import "time"

// SubscriptionStatus is the locally mirrored state of a processor subscription.
type SubscriptionStatus string

const (
	StatusNone      SubscriptionStatus = ""
	StatusActive    SubscriptionStatus = "ACTIVE"
	StatusCanceled  SubscriptionStatus = "CANCELED"
	StatusSuspended SubscriptionStatus = "SUSPENDED"
)

// BillingInterval is how often a plan bills.
type BillingInterval string

const (
	IntervalMonth BillingInterval = "MONTH"
	IntervalYear  BillingInterval = "YEAR"
)

// UserSubscription defines the model for the 'user_subscriptions' table.
// There is at most one row per user.
type UserSubscription struct {
	UserID          string             `json:"userId" db:"user_id"`
	SubscriptionID  string             `json:"subscriptionId" db:"subscription_id"`
	PlanID          string             `json:"planId" db:"plan_id"`
	Status          SubscriptionStatus `json:"status" db:"status"`
	PlanName        string             `json:"planName" db:"plan_name"`
	Interval        BillingInterval    `json:"interval" db:"billing_interval"`
	NextBillingTime *time.Time         `json:"nextBillingTime,omitempty" db:"next_billing_time"`
	LastEventAt     time.Time          `json:"-" db:"last_event_at"`
	CreatedAt       time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt" db:"updated_at"`
}
