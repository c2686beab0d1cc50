package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/billing"
	"github.com/brieflyhq/briefly/internal/middleware"
	"github.com/brieflyhq/briefly/internal/paypal"
)

// maxWebhookBody bounds a PayPal delivery.
const maxWebhookBody = 1 << 20

// GetSubscriptionPlans handles GET /v1/subscriptions/plans.
func (h *Handlers) GetSubscriptionPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.Billing.Catalog()})
}

// GetMySubscription handles GET /v1/subscriptions/me.
func (h *Handlers) GetMySubscription(c *gin.Context) {
	sub, err := h.Billing.Current(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serverError(c, "Failed to load subscription", err)
		return
	}
	status := string(sub.Status)
	if status == "" {
		status = "NONE"
	}
	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"status":       status,
	})
}

// CreateSubscriptionInput names a catalog plan.
type CreateSubscriptionInput struct {
	Plan string `json:"plan" binding:"required"`
}

// CreateSubscription handles POST /v1/subscriptions. It returns the PayPal
// approval URL; the status itself arrives later by webhook.
func (h *Handlers) CreateSubscription(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CreateSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Ask PayPal ---
	checkout, err := h.Billing.CreateSubscription(c.Request.Context(), middleware.UserID(c), input.Plan)
	if err != nil {
		billingError(c, "Failed to start subscription", err)
		return
	}

	c.JSON(http.StatusCreated, checkout)
}

// CancelSubscriptionInput optionally carries a reason shown to PayPal.
type CancelSubscriptionInput struct {
	Reason string `json:"reason" binding:"max=128"`
}

// CancelSubscription handles POST /v1/subscriptions/cancel.
func (h *Handlers) CancelSubscription(c *gin.Context) {
	var input CancelSubscriptionInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.Billing.Cancel(c.Request.Context(), middleware.UserID(c), input.Reason); err != nil {
		billingError(c, "Failed to cancel subscription", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Cancellation requested"})
}

// PayPalWebhook handles POST /v1/webhooks/paypal. Deliveries we cannot
// attribute get a 4xx and are left to PayPal's redelivery policy.
func (h *Handlers) PayPalWebhook(c *gin.Context) {
	// 1. --- Read the raw body (the signature covers it) ---
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read body"})
		return
	}

	// 2. --- Apply ---
	outcome, err := h.Billing.HandleWebhook(c.Request.Context(), body, paypal.HeadersFrom(c.Request.Header))
	switch {
	case errors.Is(err, billing.ErrInvalidSignature),
		errors.Is(err, billing.ErrMalformedEvent),
		errors.Is(err, billing.ErrUnresolvableUser):
		slog.Warn("rejected paypal webhook", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		serverError(c, "Failed to process webhook", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": outcome.String()})
}

// billingError maps service errors onto status codes.
func billingError(c *gin.Context, message string, err error) {
	var apiErr *paypal.APIError
	switch {
	case errors.Is(err, billing.ErrUnknownPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrNoSubscription):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr), errors.Is(err, billing.ErrNoApprovalLink):
		_ = c.Error(err)
		slog.Error(message, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": message})
	default:
		serverError(c, message, err)
	}
}
