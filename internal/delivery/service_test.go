package delivery_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgoncalv/quotedesk/internal/delivery"
	"github.com/mgoncalv/quotedesk/internal/quote"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}

	return d
}

func sampleQuote(t *testing.T) *quote.Quote {
	t.Helper()

	condenser, err := quote.NewLineItem(quote.ItemEquipment, "3-ton condenser", dec("1"), dec("5000"))
	require.NoError(t, err)

	labor, err := quote.NewLineItem(quote.ItemLabor, "Installation", dec("8"), dec("150"))
	require.NoError(t, err)

	expires := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	q := &quote.Quote{
		ID:            uuid.New(),
		Status:        quote.StatusDraft,
		Tier:          quote.TierBetter,
		CustomerName:  "Jensen Residence",
		TaxRate:       dec("0.0825"),
		MarginPercent: dec("35"),
		LineItems:     []quote.LineItem{condenser, labor},
		ExpiresAt:     &expires,
	}

	totals, err := quote.DeriveTotals(q.LineItems, q.TaxRate, q.MarginPercent)
	require.NoError(t, err)

	q.ApplyTotals(totals)

	return q
}

func TestService_Send_Email(t *testing.T) {
	q := sampleQuote(t)

	var got struct {
		Channel   string `json:"channel"`
		QuoteID   string `json:"quote_id"`
		Recipient string `json:"recipient"`
		Subject   string `json:"subject"`
		Body      string `json:"body"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := delivery.NewService(server.URL, "test-token")

	require.NoError(t, svc.Send(context.Background(), q, quote.SendEmail))

	assert.Equal(t, "email", got.Channel)
	assert.Equal(t, q.ID.String(), got.QuoteID)
	assert.Equal(t, "Jensen Residence", got.Recipient)
	assert.Contains(t, got.Subject, "better option")
	assert.Contains(t, got.Body, "3-ton condenser")
	assert.Contains(t, got.Body, "Subtotal: 6200.00")
	assert.Contains(t, got.Body, "Tax: 412.50")
	assert.Contains(t, got.Body, "Total: 6612.50")
	assert.Contains(t, got.Body, "valid until 2026-09-30")
}

func TestService_Send_SMS(t *testing.T) {
	q := sampleQuote(t)

	var body string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			Channel string `json:"channel"`
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))

		assert.Equal(t, "sms", msg.Channel)
		assert.Empty(t, msg.Subject)
		body = msg.Body

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := delivery.NewService(server.URL, "")

	require.NoError(t, svc.Send(context.Background(), q, quote.SendSMS))

	assert.Contains(t, body, "2 items")
	assert.Contains(t, body, "6612.50")
	assert.False(t, strings.Contains(body, "condenser"), "sms carries no breakdown")
}

func TestService_Send_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := delivery.NewService(server.URL, "test-token")

	err := svc.Send(context.Background(), sampleQuote(t), quote.SendEmail)
	assert.ErrorContains(t, err, "502")
}

func TestService_Send_UnknownMethod(t *testing.T) {
	svc := delivery.NewService("http://localhost:0", "")

	err := svc.Send(context.Background(), sampleQuote(t), quote.SendMethod("fax"))

	var vErr *quote.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
