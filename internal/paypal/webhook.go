package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Subscription lifecycle event types.
const (
	EventSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionExpired   = "BILLING.SUBSCRIPTION.EXPIRED"
	EventSubscriptionSuspended = "BILLING.SUBSCRIPTION.SUSPENDED"
)

// Event is a webhook delivery. Resource is decoded according to EventType.
type Event struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	CreateTime   time.Time       `json:"create_time"`
	ResourceType string          `json:"resource_type"`
	Summary      string          `json:"summary,omitempty"`
	Resource     json.RawMessage `json:"resource"`
}

// SubscriptionResource decodes the resource of a BILLING.SUBSCRIPTION.* event.
func (e *Event) SubscriptionResource() (*Subscription, error) {
	if len(e.Resource) == 0 {
		return nil, errors.New("paypal: event has no resource")
	}
	var s Subscription
	if err := json.Unmarshal(e.Resource, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignatureHeaders are the PAYPAL-* transmission headers of a delivery.
type SignatureHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}

// HeadersFrom reads the transmission headers from a webhook request.
func HeadersFrom(h http.Header) SignatureHeaders {
	return SignatureHeaders{
		AuthAlgo:         h.Get("Paypal-Auth-Algo"),
		CertURL:          h.Get("Paypal-Cert-Url"),
		TransmissionID:   h.Get("Paypal-Transmission-Id"),
		TransmissionSig:  h.Get("Paypal-Transmission-Sig"),
		TransmissionTime: h.Get("Paypal-Transmission-Time"),
	}
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// VerifyWebhookSignature asks PayPal whether body was sent by PayPal for the
// given webhook id.
func (c *Client) VerifyWebhookSignature(ctx context.Context, webhookID string, h SignatureHeaders, body []byte) (bool, error) {
	req := verifyRequest{
		AuthAlgo:         h.AuthAlgo,
		CertURL:          h.CertURL,
		TransmissionID:   h.TransmissionID,
		TransmissionSig:  h.TransmissionSig,
		TransmissionTime: h.TransmissionTime,
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(body),
	}
	var out verifyResponse
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", req, &out, nil); err != nil {
		return false, err
	}
	return out.VerificationStatus == "SUCCESS", nil
}
