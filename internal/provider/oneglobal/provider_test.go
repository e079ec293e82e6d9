package oneglobal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
)

func TestVerifyWebhookAcceptsSignedEvent(t *testing.T) {
	p := New("s3cret")
	payload := []byte(`{"id":"evt-1","type":"line_suspended","providerLineId":"1g-line-1","timestamp":"2025-05-15T12:00:00Z"}`)

	event, err := p.VerifyWebhook("s3cret", payload)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, providerdomain.EventLineSuspended, event.Type)
	assert.Equal(t, "1g-line-1", event.ProviderLineID)
	assert.Equal(t, time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC), event.Timestamp)
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	p := New("s3cret")
	payload := []byte(`{"id":"evt-1","type":"line_suspended","providerLineId":"1g-line-1","timestamp":"2025-05-15T12:00:00Z"}`)

	_, err := p.VerifyWebhook("wrong", payload)
	assert.ErrorIs(t, err, providerdomain.ErrInvalidSignature)
}

func TestVerifyWebhookEmptySecretSkipsSignatureCheck(t *testing.T) {
	p := New("")
	payload := []byte(`{"id":"evt-1","type":"line_terminated","providerLineId":"1g-line-1","timestamp":"2025-05-15T12:00:00Z"}`)

	event, err := p.VerifyWebhook("", payload)
	require.NoError(t, err)
	assert.Equal(t, providerdomain.EventLineTerminated, event.Type)
}

func TestVerifyWebhookRejectsMalformedJSON(t *testing.T) {
	p := New("")

	_, err := p.VerifyWebhook("", []byte(`{not json`))
	assert.ErrorIs(t, err, providerdomain.ErrMalformedEvent)
}

func TestVerifyWebhookRejectsMissingFields(t *testing.T) {
	p := New("")
	payload := []byte(`{"id":"evt-1","type":"line_suspended","timestamp":"2025-05-15T12:00:00Z"}`)

	_, err := p.VerifyWebhook("", payload)
	assert.ErrorIs(t, err, providerdomain.ErrMalformedEvent)
}

func TestVerifyWebhookRejectsUnknownEventType(t *testing.T) {
	p := New("")
	payload := []byte(`{"id":"evt-1","type":"line_exploded","providerLineId":"1g-line-1","timestamp":"2025-05-15T12:00:00Z"}`)

	_, err := p.VerifyWebhook("", payload)
	assert.ErrorIs(t, err, providerdomain.ErrUnsupportedEvent)
}

func TestVerifyWebhookRejectsBadTimestamp(t *testing.T) {
	p := New("")
	payload := []byte(`{"id":"evt-1","type":"line_suspended","providerLineId":"1g-line-1","timestamp":"yesterday"}`)

	_, err := p.VerifyWebhook("", payload)
	assert.ErrorIs(t, err, providerdomain.ErrMalformedEvent)
}

func TestIssueEsimShapes(t *testing.T) {
	p := New("")

	esim, err := p.IssueEsim(context.Background(), providerdomain.IssueEsimRequest{TenantID: "1", EmployeeID: "2"})
	require.NoError(t, err)
	assert.Contains(t, esim.ProviderLineID, "1g-line-")
	assert.Len(t, esim.ICCID, 18)
	assert.Contains(t, esim.ActivationCode, "LPA:1$")
}

func TestFetchUsageReturnsRecords(t *testing.T) {
	p := New("")

	records, err := p.FetchUsage(context.Background(), "1g-line-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.GreaterOrEqual(t, records[0].MbUsed, int64(10))
}
