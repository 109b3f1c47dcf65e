// Package delivery hands finished quotes to the message gateway that owns
// the actual email/SMS sending. Only the request/response contract lives
// here; rendering failures or gateway errors abort the send so the quote
// never moves to sent without a delivered document.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

type Service struct {
	client   *http.Client
	baseURL  string
	apiToken string
}

func NewService(baseURL, apiToken string) *Service {
	return &Service{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
	}
}

type message struct {
	Channel   string `json:"channel"`
	QuoteID   string `json:"quote_id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
}

// Send renders the quote for the chosen channel and posts it to the
// gateway. The recipient is resolved by the gateway from the customer
// record; this service only names the customer.
func (s *Service) Send(ctx context.Context, q *quote.Quote, method quote.SendMethod) error {
	msg := message{
		Channel:   string(method),
		QuoteID:   q.ID.String(),
		Recipient: q.CustomerName,
	}

	switch method {
	case quote.SendEmail:
		msg.Subject = fmt.Sprintf("Your quote from QuoteDesk (%s option)", q.Tier)
		msg.Body = EmailBody(q)
	case quote.SendSMS:
		msg.Body = SMSBody(q)
	default:
		return &quote.ValidationError{Field: "method", Reason: fmt.Sprintf("unknown send method %q", string(method))}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if s.apiToken != "" {
		req.Header.Set("Authorization", "Token "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return nil
}

// EmailBody renders the full line-item breakdown the customer sees.
func EmailBody(q *quote.Quote) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Quote for %s\n\n", q.CustomerName)

	for _, item := range q.LineItems {
		fmt.Fprintf(&sb, "* %-12s %s x %s @ %s = %s\n",
			item.Type, item.Description,
			item.Quantity.String(), item.UnitPrice.StringFixed(2), item.Total.StringFixed(2))
	}

	fmt.Fprintf(&sb, "\nSubtotal: %s\n", q.Subtotal.StringFixed(2))
	fmt.Fprintf(&sb, "Tax: %s\n", q.Tax.StringFixed(2))
	fmt.Fprintf(&sb, "Total: %s\n", q.Total.StringFixed(2))

	if q.ExpiresAt != nil {
		fmt.Fprintf(&sb, "\nThis quote is valid until %s.\n", q.ExpiresAt.Format("2006-01-02"))
	}

	return sb.String()
}

// SMSBody is the short form: total only, no breakdown.
func SMSBody(q *quote.Quote) string {
	return fmt.Sprintf("Your quote is ready: %d items, total %s. Reply or call to accept.",
		len(q.LineItems), q.Total.StringFixed(2))
}
