package processor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the payment processor's transaction-creation endpoint.
type Client struct {
	BaseURL     string
	SecretKey   string
	PublicKey   string
	ProductName string
	PostbackURL string
	HTTP        *http.Client
}

type CreateRequest struct {
	AmountCents   int
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Document      string
	ExternalRef   string
	ItemRef       string
	Metadata      string
	IP            string
}

// CreateResult is the normalized view of a creation response.
type CreateResult struct {
	TransactionID string
	PixCode       string
	ReceiptURL    string
	Txid          string
	FeeCents      int
}

type apiRequest struct {
	Amount        int         `json:"amount"`
	PaymentMethod string      `json:"paymentMethod"`
	Pix           pixConfig   `json:"pix"`
	Customer      apiCustomer `json:"customer"`
	Items         []apiItem   `json:"items"`
	PostbackURL   string      `json:"postbackUrl,omitempty"`
	Metadata      string      `json:"metadata,omitempty"`
	IP            string      `json:"ip,omitempty"`
}

type pixConfig struct {
	ExpiresInDays int `json:"expiresInDays"`
}

type apiCustomer struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Document    apiDocument `json:"document"`
	ExternalRef string      `json:"externalRef"`
}

type apiDocument struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type apiItem struct {
	Title       string `json:"title"`
	UnitPrice   int    `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Tangible    bool   `json:"tangible"`
	ExternalRef string `json:"externalRef,omitempty"`
}

type apiResponse struct {
	ID  any `json:"id"`
	Pix struct {
		QRCode     string `json:"qrcode"`
		QRCodeURL  string `json:"qrcodeUrl"`
		ReceiptURL string `json:"receiptUrl"`
		End2EndID  string `json:"end2EndId"`
		Txid       string `json:"txid"`
	} `json:"pix"`
	Fee struct {
		Amount int `json:"amount"`
	} `json:"fee"`
}

// Responses name the same logical value differently across processor
// versions, so each value is extracted by an ordered rule list: first rule
// producing a non-empty value wins. Append to extend.
type extractRule struct {
	name string
	fn   func(*apiResponse) string
}

var pixCodeRules = []extractRule{
	{"pix.qrcode", func(r *apiResponse) string { return r.Pix.QRCode }},
}

var receiptURLRules = []extractRule{
	{"pix.receiptUrl", func(r *apiResponse) string { return r.Pix.ReceiptURL }},
	{"pix.qrcodeUrl", func(r *apiResponse) string { return r.Pix.QRCodeURL }},
}

var txidRules = []extractRule{
	{"pix.end2EndId", func(r *apiResponse) string { return r.Pix.End2EndID }},
	{"pix.txid", func(r *apiResponse) string { return r.Pix.Txid }},
}

func extract(rules []extractRule, r *apiResponse) string {
	for _, rule := range rules {
		if v := rule.fn(r); v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) CreateTransaction(ctx context.Context, req CreateRequest) (CreateResult, error) {
	payload := apiRequest{
		Amount:        req.AmountCents,
		PaymentMethod: "pix",
		Pix:           pixConfig{ExpiresInDays: 1},
		Customer: apiCustomer{
			Name:        req.CustomerName,
			Email:       req.CustomerEmail,
			Phone:       req.CustomerPhone,
			Document:    apiDocument{Type: "cpf", Number: req.Document},
			ExternalRef: req.ExternalRef,
		},
		Items: []apiItem{{
			Title:       c.ProductName,
			UnitPrice:   req.AmountCents,
			Quantity:    1,
			Tangible:    false,
			ExternalRef: req.ItemRef,
		}},
		PostbackURL: c.PostbackURL,
		Metadata:    req.Metadata,
		IP:          req.IP,
	}

	var resp apiResponse
	if err := c.post(ctx, "/transactions", payload, &resp); err != nil {
		return CreateResult{}, err
	}
	id := stringID(resp.ID)
	if id == "" {
		return CreateResult{}, errors.New("processor response missing transaction id")
	}

	result := CreateResult{
		TransactionID: id,
		PixCode:       extract(pixCodeRules, &resp),
		ReceiptURL:    extract(receiptURLRules, &resp),
		Txid:          extract(txidRules, &resp),
		FeeCents:      resp.Fee.Amount,
	}
	if result.ReceiptURL == "" && result.PixCode != "" {
		result.ReceiptURL = QRImageURL(result.PixCode)
	}
	return result, nil
}

// QRImageURL builds a rendered QR image for a pix code when the processor
// did not return one.
func QRImageURL(pixCode string) string {
	return "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=" + url.QueryEscape(pixCode)
}

// stringID tolerates processors that return the id as a JSON number.
func stringID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.SecretKey + ":" + c.PublicKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("processor status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}
