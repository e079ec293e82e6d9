// Package oneglobal implements the provider contract against the 1GLOBAL
// sandbox. Line operations succeed immediately and usage pulls return
// synthetic records; the webhook path performs real signature and shape
// checks.
package oneglobal

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
)

const Name = "1global"

type Provider struct {
	// secret is the shared webhook secret. Empty disables the signature
	// check (sandbox default).
	secret string
}

func New(secret string) *Provider {
	return &Provider{secret: secret}
}

func (p *Provider) IssueEsim(ctx context.Context, req providerdomain.IssueEsimRequest) (providerdomain.IssueEsimResult, error) {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return providerdomain.IssueEsimResult{
		ProviderLineID: "1g-line-" + suffix,
		ICCID:          fmt.Sprintf("89882100%010d", rand.Int63n(10_000_000_000)),
		ActivationCode: "LPA:1$rsp.1global.demo$" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
	}, nil
}

func (p *Provider) AssignPlan(ctx context.Context, providerLineID, planExternalID string) error {
	return nil
}

func (p *Provider) ChangePlan(ctx context.Context, providerLineID, planExternalID string) error {
	return nil
}

func (p *Provider) SuspendLine(ctx context.Context, providerLineID string) error {
	return nil
}

func (p *Provider) ReactivateLine(ctx context.Context, providerLineID string) error {
	return nil
}

func (p *Provider) TerminateLine(ctx context.Context, providerLineID string) error {
	return nil
}

func (p *Provider) FetchUsage(ctx context.Context, providerLineID string) ([]providerdomain.UsageRecord, error) {
	return []providerdomain.UsageRecord{
		{
			MbUsed:     rand.Int63n(120) + 10,
			OccurredAt: time.Now().UTC(),
		},
	}, nil
}

type webhookPayload struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	ProviderLineID string `json:"providerLineId"`
	Timestamp      string `json:"timestamp"`
}

func (p *Provider) VerifyWebhook(signature string, payload []byte) (providerdomain.WebhookEvent, error) {
	// Production would verify an HMAC digest; the sandbox uses a shared
	// secret carried verbatim in the signature header.
	if p.secret != "" && !hmac.Equal([]byte(signature), []byte(p.secret)) {
		return providerdomain.WebhookEvent{}, providerdomain.ErrInvalidSignature
	}

	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return providerdomain.WebhookEvent{}, providerdomain.ErrMalformedEvent
	}
	if body.ID == "" || body.ProviderLineID == "" || body.Type == "" || body.Timestamp == "" {
		return providerdomain.WebhookEvent{}, providerdomain.ErrMalformedEvent
	}

	eventType := providerdomain.WebhookEventType(body.Type)
	switch eventType {
	case providerdomain.EventLineSuspended, providerdomain.EventLineReactivated, providerdomain.EventLineTerminated:
	default:
		return providerdomain.WebhookEvent{}, providerdomain.ErrUnsupportedEvent
	}

	ts, err := time.Parse(time.RFC3339, body.Timestamp)
	if err != nil {
		return providerdomain.WebhookEvent{}, providerdomain.ErrMalformedEvent
	}

	return providerdomain.WebhookEvent{
		ID:             body.ID,
		Type:           eventType,
		ProviderLineID: body.ProviderLineID,
		Timestamp:      ts.UTC(),
	}, nil
}
