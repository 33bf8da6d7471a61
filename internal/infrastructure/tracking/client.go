package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Statuses the receiver understands. Anything else is not forwarded.
const (
	StatusWaitingPayment = "waiting_payment"
	StatusPaid           = "paid"
)

// TimeLayout is the receiver's timestamp format (UTC, no zone suffix).
const TimeLayout = "2006-01-02 15:04:05"

// Event is the canonical lifecycle payload sent to the tracking receiver.
type Event struct {
	OrderID            string            `json:"orderId"`
	Platform           string            `json:"platform"`
	PaymentMethod      string            `json:"paymentMethod"`
	Status             string            `json:"status"`
	CreatedAt          string            `json:"createdAt"`
	ApprovedDate       string            `json:"approvedDate,omitempty"`
	RefundedAt         string            `json:"refundedAt,omitempty"`
	Customer           Customer          `json:"customer"`
	Products           []Product         `json:"products"`
	TrackingParameters map[string]string `json:"trackingParameters"`
	Commission         Commission        `json:"commission"`
	IsTest             bool              `json:"isTest"`
}

type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	Country  string `json:"country"`
	IP       string `json:"ip,omitempty"`
}

type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PlanID       string `json:"planId,omitempty"`
	PlanName     string `json:"planName,omitempty"`
	Quantity     int    `json:"quantity"`
	PriceInCents int    `json:"priceInCents"`
}

type Commission struct {
	TotalPriceInCents     int `json:"totalPriceInCents"`
	GatewayFeeInCents     int `json:"gatewayFeeInCents"`
	UserCommissionInCents int `json:"userCommissionInCents"`
}

// Client posts lifecycle events to the tracking receiver. An unset URL
// disables forwarding and every Send becomes a no-op.
type Client struct {
	URL   string
	Token string
	HTTP  *http.Client
}

func (c *Client) Enabled() bool {
	return c != nil && c.URL != ""
}

func (c *Client) Send(ctx context.Context, ev Event) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-token", c.Token)

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tracking status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// FormatTime renders a timestamp the way the receiver expects.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
