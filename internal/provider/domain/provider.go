// Package domain defines the connectivity-provider contract: the five
// line operations plus usage pull and webhook verification.
package domain

import (
	"context"
	"errors"
	"time"
)

type IssueEsimRequest struct {
	TenantID   string
	EmployeeID string
}

type IssueEsimResult struct {
	ProviderLineID string
	ICCID          string
	ActivationCode string
}

type UsageRecord struct {
	MbUsed     int64
	OccurredAt time.Time
}

type WebhookEventType string

const (
	EventLineSuspended   WebhookEventType = "line_suspended"
	EventLineReactivated WebhookEventType = "line_reactivated"
	EventLineTerminated  WebhookEventType = "line_terminated"
)

// WebhookEvent is a verified provider lifecycle event. Payloads are
// provider-scoped: the provider line id, not a tenant id, identifies the
// subject.
type WebhookEvent struct {
	ID             string           `json:"id"`
	Type           WebhookEventType `json:"type"`
	ProviderLineID string           `json:"provider_line_id"`
	Timestamp      time.Time        `json:"timestamp"`
}

type Provider interface {
	IssueEsim(ctx context.Context, req IssueEsimRequest) (IssueEsimResult, error)
	AssignPlan(ctx context.Context, providerLineID, planExternalID string) error
	ChangePlan(ctx context.Context, providerLineID, planExternalID string) error
	SuspendLine(ctx context.Context, providerLineID string) error
	ReactivateLine(ctx context.Context, providerLineID string) error
	TerminateLine(ctx context.Context, providerLineID string) error
	FetchUsage(ctx context.Context, providerLineID string) ([]UsageRecord, error)

	// VerifyWebhook authenticates a raw delivery and decodes it into a
	// WebhookEvent. It fails on signature mismatch, missing fields, or an
	// unrecognized event type.
	VerifyWebhook(signature string, payload []byte) (WebhookEvent, error)
}

var (
	ErrUnknownProvider  = errors.New("unknown_provider")
	ErrProviderFailure  = errors.New("provider_failure")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrMalformedEvent   = errors.New("malformed_event")
	ErrUnsupportedEvent = errors.New("unsupported_event")
)
