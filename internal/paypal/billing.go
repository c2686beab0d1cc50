package paypal

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Product is a catalog product. Plans hang off a product.
type Product struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
}

type Money struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type Frequency struct {
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

type PricingScheme struct {
	FixedPrice Money `json:"fixed_price"`
}

type BillingCycle struct {
	Frequency     Frequency     `json:"frequency"`
	TenureType    string        `json:"tenure_type"`
	Sequence      int           `json:"sequence"`
	TotalCycles   int           `json:"total_cycles"`
	PricingScheme PricingScheme `json:"pricing_scheme"`
}

type PaymentPreferences struct {
	AutoBillOutstanding     bool   `json:"auto_bill_outstanding"`
	SetupFeeFailureAction   string `json:"setup_fee_failure_action,omitempty"`
	PaymentFailureThreshold int    `json:"payment_failure_threshold"`
}

// Plan is a billing plan.
type Plan struct {
	ID                 string              `json:"id,omitempty"`
	ProductID          string              `json:"product_id"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	Status             string              `json:"status,omitempty"`
	BillingCycles      []BillingCycle      `json:"billing_cycles,omitempty"`
	PaymentPreferences *PaymentPreferences `json:"payment_preferences,omitempty"`
}

// FixedCycle builds the single regular billing cycle of a plan that
// bills a fixed price every interval ("MONTH" or "YEAR") until cancelled.
func FixedCycle(interval, price, currency string) []BillingCycle {
	return []BillingCycle{{
		Frequency:   Frequency{IntervalUnit: interval, IntervalCount: 1},
		TenureType:  "REGULAR",
		Sequence:    1,
		TotalCycles: 0,
		PricingScheme: PricingScheme{
			FixedPrice: Money{Value: price, CurrencyCode: currency},
		},
	}}
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type ApplicationContext struct {
	BrandName  string `json:"brand_name,omitempty"`
	UserAction string `json:"user_action,omitempty"`
	ReturnURL  string `json:"return_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

type BillingInfo struct {
	NextBillingTime *time.Time `json:"next_billing_time,omitempty"`
}

// Subscription is both the create request and the resource PayPal returns,
// including inside webhook events.
type Subscription struct {
	ID                 string              `json:"id,omitempty"`
	PlanID             string              `json:"plan_id"`
	CustomID           string              `json:"custom_id,omitempty"`
	Status             string              `json:"status,omitempty"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
	BillingInfo        *BillingInfo        `json:"billing_info,omitempty"`
	Links              []Link              `json:"links,omitempty"`
}

// ApprovalURL returns the link the buyer follows to approve the subscription.
func (s *Subscription) ApprovalURL() string {
	for _, l := range s.Links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

func (c *Client) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPost, "/v1/catalogs/products", p, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePlan(ctx context.Context, p Plan) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, http.MethodPost, "/v1/billing/plans", p, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPlan fetches a plan by id. A missing plan yields an *APIError with
// StatusCode 404.
func (c *Client) GetPlan(ctx context.Context, id string) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, http.MethodGet, "/v1/billing/plans/"+url.PathEscape(id), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription starts a subscription awaiting buyer approval.
// requestID is sent as PayPal-Request-Id so a retried call is not duplicated.
func (c *Client) CreateSubscription(ctx context.Context, s Subscription, requestID string) (*Subscription, error) {
	var out Subscription
	headers := map[string]string{"Prefer": "return=representation"}
	if requestID != "" {
		headers["PayPal-Request-Id"] = requestID
	}
	if err := c.do(ctx, http.MethodPost, "/v1/billing/subscriptions", s, &out, headers); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription asks PayPal to cancel. The state change itself arrives
// later as a webhook event.
func (c *Client) CancelSubscription(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/v1/billing/subscriptions/"+url.PathEscape(id)+"/cancel", body, nil, nil)
}
