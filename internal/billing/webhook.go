package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/models"
	"github.com/brieflyhq/briefly/internal/paypal"
)

// Outcome says what a webhook delivery did.
type Outcome int

const (
	// OutcomeApplied means the record was written.
	OutcomeApplied Outcome = iota + 1
	// OutcomeIgnored means the event type is not one we track, or the
	// transition does not apply to the current record.
	OutcomeIgnored
	// OutcomeStale means the event was older than the record, or named a
	// subscription the user has since replaced.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeStale:
		return "stale"
	}
	return "unknown"
}

// transitions maps tracked event types to the status they set.
var transitions = map[string]models.SubscriptionStatus{
	paypal.EventSubscriptionActivated: models.StatusActive,
	paypal.EventSubscriptionCancelled: models.StatusCanceled,
	paypal.EventSubscriptionExpired:   models.StatusCanceled,
	paypal.EventSubscriptionSuspended: models.StatusSuspended,
}

// HandleWebhook verifies and applies one delivery. Errors wrapping
// ErrInvalidSignature, ErrMalformedEvent or ErrUnresolvableUser are the
// sender's fault; anything else is ours.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, headers paypal.SignatureHeaders) (Outcome, error) {
	// 1. --- Parse the event ---
	var event paypal.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	// 2. --- Verify the signature when a webhook id is configured ---
	if s.opts.WebhookID != "" {
		ok, err := s.gateway.VerifyWebhookSignature(ctx, s.opts.WebhookID, headers, body)
		if err != nil {
			slog.Error("webhook verification call failed", "event_id", event.ID, "error", err)
			return 0, ErrInvalidSignature
		}
		if !ok {
			return 0, ErrInvalidSignature
		}
	}

	// 3. --- Ignore event types we do not track ---
	status, tracked := transitions[event.EventType]
	if !tracked {
		slog.Info("ignoring webhook event", "event_id", event.ID, "event_type", event.EventType)
		return OutcomeIgnored, nil
	}

	resource, err := event.SubscriptionResource()
	if err != nil || resource.ID == "" {
		return 0, fmt.Errorf("%w: subscription resource missing", ErrMalformedEvent)
	}

	// 4. --- Resolve the user ---
	userID, err := s.resolveUser(ctx, resource)
	if err != nil {
		return 0, err
	}

	// 5. --- Drop out-of-order deliveries ---
	current, err := s.subs.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return 0, err
	}
	if current != nil {
		if !current.LastEventAt.IsZero() && !event.CreateTime.IsZero() && event.CreateTime.Before(current.LastEventAt) {
			slog.Info("stale webhook event", "event_id", event.ID, "user_id", userID)
			return OutcomeStale, nil
		}
		if current.SubscriptionID != resource.ID && status != models.StatusActive {
			slog.Info("webhook event for a replaced subscription", "event_id", event.ID,
				"user_id", userID, "subscription_id", resource.ID)
			return OutcomeStale, nil
		}
	}
	if status == models.StatusSuspended && (current == nil || current.Status != models.StatusActive) {
		slog.Info("suspension of an inactive subscription", "event_id", event.ID,
			"user_id", userID, "subscription_id", resource.ID)
		return OutcomeIgnored, nil
	}

	// 6. --- Upsert the record ---
	record := &models.UserSubscription{
		UserID:         userID,
		SubscriptionID: resource.ID,
		PlanID:         resource.PlanID,
		Status:         status,
		LastEventAt:    event.CreateTime,
	}
	if record.LastEventAt.IsZero() {
		record.LastEventAt = s.now()
	}
	if current != nil {
		record.CreatedAt = current.CreatedAt
		if current.PlanID == resource.PlanID {
			record.PlanName = current.PlanName
			record.Interval = current.Interval
		}
	}
	if record.PlanName == "" && resource.PlanID != "" {
		if plan, err := s.plans.GetByExternalID(ctx, resource.PlanID); err == nil {
			record.PlanName = plan.Name
			record.Interval = plan.Interval
		}
	}
	if resource.BillingInfo != nil && resource.BillingInfo.NextBillingTime != nil {
		record.NextBillingTime = resource.BillingInfo.NextBillingTime
	} else if current != nil && status == models.StatusActive {
		record.NextBillingTime = current.NextBillingTime
	}

	if err := s.subs.Upsert(ctx, record); err != nil {
		return 0, fmt.Errorf("save subscription: %w", err)
	}
	slog.Info("subscription status updated", "event_id", event.ID, "user_id", userID,
		"subscription_id", resource.ID, "status", status)
	return OutcomeApplied, nil
}

// resolveUser trusts custom_id when it names a registered user, and falls
// back to the record already holding the subscription id.
func (s *Service) resolveUser(ctx context.Context, resource *paypal.Subscription) (string, error) {
	if resource.CustomID != "" {
		ok, err := s.users.Exists(ctx, resource.CustomID)
		if err != nil {
			return "", err
		}
		if ok {
			return resource.CustomID, nil
		}
	}
	existing, err := s.subs.GetBySubscriptionID(ctx, resource.ID)
	if errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("%w: subscription %s, custom_id %q", ErrUnresolvableUser, resource.ID, resource.CustomID)
	}
	if err != nil {
		return "", err
	}
	return existing.UserID, nil
}
