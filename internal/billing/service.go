// Package billing brokers subscriptions with PayPal: it memoizes billing
// plans, starts subscriptions and mirrors their status from webhook events.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/models"
	"github.com/brieflyhq/briefly/internal/paypal"
)

var (
	ErrNoSubscription   = errors.New("no active subscription")
	ErrNoApprovalLink   = errors.New("paypal returned no approval link")
	ErrUnresolvableUser = errors.New("webhook event names no known user")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// PlanStore memoizes PayPal plans by catalog name.
type PlanStore interface {
	GetByName(ctx context.Context, name string) (*models.SubscriptionPlan, error)
	GetByExternalID(ctx context.Context, planID string) (*models.SubscriptionPlan, error)
	Upsert(ctx context.Context, p *models.SubscriptionPlan) error
}

// SubscriptionStore holds the one-per-user subscription record.
type SubscriptionStore interface {
	GetByUser(ctx context.Context, userID string) (*models.UserSubscription, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.UserSubscription, error)
	Upsert(ctx context.Context, s *models.UserSubscription) error
}

// UserDirectory tells whether a user id is registered.
type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Gateway is the part of the PayPal API the service calls.
type Gateway interface {
	CreateProduct(ctx context.Context, p paypal.Product) (*paypal.Product, error)
	CreatePlan(ctx context.Context, p paypal.Plan) (*paypal.Plan, error)
	GetPlan(ctx context.Context, id string) (*paypal.Plan, error)
	CreateSubscription(ctx context.Context, s paypal.Subscription, requestID string) (*paypal.Subscription, error)
	CancelSubscription(ctx context.Context, id, reason string) error
	VerifyWebhookSignature(ctx context.Context, webhookID string, h paypal.SignatureHeaders, body []byte) (bool, error)
}

// Options configures a Service.
type Options struct {
	BrandName string
	ReturnURL string
	CancelURL string
	// WebhookID enables signature verification when set.
	WebhookID string
}

// Service is the subscription broker.
type Service struct {
	catalog *Catalog
	plans   PlanStore
	subs    SubscriptionStore
	users   UserDirectory
	gateway Gateway
	opts    Options
	now     func() time.Time
}

func NewService(catalog *Catalog, plans PlanStore, subs SubscriptionStore, users UserDirectory, gateway Gateway, opts Options) *Service {
	if opts.BrandName == "" {
		opts.BrandName = "Briefly"
	}
	return &Service{
		catalog: catalog,
		plans:   plans,
		subs:    subs,
		users:   users,
		gateway: gateway,
		opts:    opts,
		now:     time.Now,
	}
}

// Catalog lists the sellable plans.
func (s *Service) Catalog() []CatalogPlan {
	return s.catalog.Plans()
}

// EnsurePlan returns a PayPal plan for the catalog entry, creating one only
// when no memo exists or the memoized plan no longer verifies upstream.
func (s *Service) EnsurePlan(ctx context.Context, name string) (*models.SubscriptionPlan, error) {
	// 1. --- Resolve the catalog entry ---
	entry, err := s.catalog.Find(name)
	if err != nil {
		return nil, err
	}

	// 2. --- Check the memo and verify it upstream ---
	cached, err := s.plans.GetByName(ctx, name)
	switch {
	case err == nil:
		_, verr := s.gateway.GetPlan(ctx, cached.ExternalPlanID)
		if verr == nil {
			return cached, nil
		}
		slog.Warn("memoized plan failed verification, recreating",
			"plan", name, "external_plan_id", cached.ExternalPlanID, "error", verr)
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("load plan memo: %w", err)
	}

	// 3. --- Create product and plan ---
	product, err := s.gateway.CreateProduct(ctx, paypal.Product{
		Name:        s.opts.BrandName + " " + entry.Name,
		Description: entry.Description,
		Type:        "SERVICE",
		Category:    "SOFTWARE",
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	plan, err := s.gateway.CreatePlan(ctx, paypal.Plan{
		ProductID:     product.ID,
		Name:          entry.Name,
		Description:   entry.Description,
		Status:        "ACTIVE",
		BillingCycles: paypal.FixedCycle(string(entry.Interval), entry.Price.StringFixed(2), entry.Currency),
		PaymentPreferences: &paypal.PaymentPreferences{
			AutoBillOutstanding:     true,
			SetupFeeFailureAction:   "CONTINUE",
			PaymentFailureThreshold: 3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	// 4. --- Overwrite the memo ---
	memo := &models.SubscriptionPlan{
		Name:              entry.Name,
		Description:       entry.Description,
		Price:             entry.Price,
		Currency:          entry.Currency,
		Interval:          entry.Interval,
		ExternalPlanID:    plan.ID,
		ExternalProductID: product.ID,
		Features:          entry.Features,
	}
	if cached != nil {
		memo.CreatedAt = cached.CreatedAt
	}
	if err := s.plans.Upsert(ctx, memo); err != nil {
		return nil, fmt.Errorf("save plan memo: %w", err)
	}
	slog.Info("created paypal plan", "plan", name, "external_plan_id", plan.ID)
	return memo, nil
}

// Checkout is what the client needs to send the buyer to PayPal.
type Checkout struct {
	SubscriptionID string `json:"subscriptionId"`
	ApprovalURL    string `json:"approvalUrl"`
}

// CreateSubscription starts a subscription for the user and returns the
// approval link. It writes no local status; that arrives by webhook.
func (s *Service) CreateSubscription(ctx context.Context, userID, planName string) (*Checkout, error) {
	plan, err := s.EnsurePlan(ctx, planName)
	if err != nil {
		return nil, err
	}

	requestID := fmt.Sprintf("%s-%d", userID, s.now().UnixMilli())
	sub, err := s.gateway.CreateSubscription(ctx, paypal.Subscription{
		PlanID:   plan.ExternalPlanID,
		CustomID: userID,
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:  s.opts.BrandName,
			UserAction: "SUBSCRIBE_NOW",
			ReturnURL:  s.opts.ReturnURL,
			CancelURL:  s.opts.CancelURL,
		},
	}, requestID)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	link := sub.ApprovalURL()
	if link == "" {
		return nil, ErrNoApprovalLink
	}
	return &Checkout{SubscriptionID: sub.ID, ApprovalURL: link}, nil
}

// Current returns the user's record, or a record with StatusNone.
func (s *Service) Current(ctx context.Context, userID string) (*models.UserSubscription, error) {
	sub, err := s.subs.GetByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return &models.UserSubscription{UserID: userID, Status: models.StatusNone}, nil
	}
	return sub, err
}

// Cancel asks PayPal to cancel the user's subscription. The local record
// changes only when the CANCELLED event arrives.
func (s *Service) Cancel(ctx context.Context, userID, reason string) error {
	sub, err := s.subs.GetByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNoSubscription
	}
	if err != nil {
		return err
	}
	if sub.Status != models.StatusActive && sub.Status != models.StatusSuspended {
		return ErrNoSubscription
	}
	if reason == "" {
		reason = "Cancelled by the subscriber"
	}
	if err := s.gateway.CancelSubscription(ctx, sub.SubscriptionID, reason); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return nil
}
