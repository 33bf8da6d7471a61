package processor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateTransactionExtraction(t *testing.T) {
	var gotAuth string
	var gotBody apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/transactions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 123456,
			"pix": {"qrcode": "00020126pix", "receiptUrl": "https://pay.example/r/1", "end2EndId": "E123"},
			"fee": {"amount": 150}
		}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, SecretKey: "sk", PublicKey: "pk", ProductName: "Produto", HTTP: srv.Client()}
	res, err := c.CreateTransaction(context.Background(), CreateRequest{
		AmountCents:   5940,
		CustomerName:  "Ana Souza Lima",
		CustomerEmail: "ana@example.com",
		CustomerPhone: "(11) 99999-9999",
		Document:      "52998224725",
		ExternalRef:   "md-abc-1",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk:pk"))
	if gotAuth != wantAuth {
		t.Errorf("Authorization = %q, want %q", gotAuth, wantAuth)
	}
	if res.TransactionID != "123456" {
		t.Errorf("TransactionID = %q, want numeric id rendered as string", res.TransactionID)
	}
	if res.PixCode != "00020126pix" {
		t.Errorf("PixCode = %q", res.PixCode)
	}
	if res.ReceiptURL != "https://pay.example/r/1" {
		t.Errorf("ReceiptURL = %q, want receiptUrl over qrcodeUrl", res.ReceiptURL)
	}
	if res.Txid != "E123" {
		t.Errorf("Txid = %q", res.Txid)
	}
	if res.FeeCents != 150 {
		t.Errorf("FeeCents = %d", res.FeeCents)
	}
	if gotBody.PaymentMethod != "pix" || gotBody.Amount != 5940 {
		t.Errorf("request body = %+v", gotBody)
	}
	if len(gotBody.Items) != 1 || gotBody.Items[0].UnitPrice != 5940 || gotBody.Items[0].Quantity != 1 {
		t.Errorf("items = %+v", gotBody.Items)
	}
}

func TestCreateTransactionFallbacks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "tx-9", "pix": {"qrcode": "raw-pix-code", "txid": "T9"}}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	res, err := c.CreateTransaction(context.Background(), CreateRequest{AmountCents: 100})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if !strings.Contains(res.ReceiptURL, "qrserver.com") || !strings.Contains(res.ReceiptURL, "raw-pix-code") {
		t.Errorf("ReceiptURL = %q, want rendered QR fallback", res.ReceiptURL)
	}
	if res.Txid != "T9" {
		t.Errorf("Txid = %q, want pix.txid when end2EndId absent", res.Txid)
	}
}

func TestCreateTransactionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pix": {"qrcode": "x"}}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	if _, err := c.CreateTransaction(context.Background(), CreateRequest{AmountCents: 100}); err == nil {
		t.Fatal("want error when response has no id")
	}
}

func TestCreateTransactionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.CreateTransaction(context.Background(), CreateRequest{AmountCents: 100})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v, want status in message", err)
	}
}
