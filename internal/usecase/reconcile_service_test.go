package usecase

import (
	"errors"
	"testing"
	"time"

	"pix-backend/internal/domain"
	"pix-backend/internal/infrastructure/repo"
	"pix-backend/internal/infrastructure/tracking"
)

func seedOrder(t *testing.T, r *repo.MemoryOrderRepo, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := r.UpsertPending(&domain.Order{
		TransactionID: id,
		Status:        domain.OrderPending,
		AmountCents:   5940,
		PaymentMethod: "pix",
		Platform:      "checkout",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func newReconcile(sender *fakeSender) (*ReconcileService, *repo.MemoryOrderRepo) {
	r := repo.NewMemoryOrderRepo()
	fw := &TrackingForwarder{Sender: sender, ProductName: "Produto"}
	return NewReconcileService(r, fw), r
}

func TestApplyWebhookPaidForwardsOnce(t *testing.T) {
	sender := newFakeSender()
	svc, r := newReconcile(sender)
	seedOrder(t, r, "tx-200")

	res, err := svc.ApplyWebhook(map[string]any{
		"event": "transaction.paid",
		"data":  map[string]any{"id": "tx-200"},
	})
	if err != nil {
		t.Fatalf("ApplyWebhook: %v", err)
	}
	if res.Status != "paid" || !res.Paid {
		t.Errorf("result = %+v, want paid", res)
	}

	o, _ := r.Get("tx-200")
	if o.Status != domain.OrderPaid {
		t.Errorf("stored status = %q", o.Status)
	}

	ev := sender.wait(t)
	if ev.Status != tracking.StatusPaid {
		t.Errorf("event status = %q, want paid", ev.Status)
	}
	if ev.ApprovedDate == "" {
		t.Error("paid event missing ApprovedDate")
	}
	select {
	case extra := <-sender.ch:
		t.Errorf("unexpected second event: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestApplyWebhookNumericID(t *testing.T) {
	sender := newFakeSender()
	svc, r := newReconcile(sender)
	seedOrder(t, r, "123456")

	res, err := svc.ApplyWebhook(map[string]any{
		"paymentId":      float64(123456),
		"payment_status": "approved",
	})
	if err != nil {
		t.Fatalf("ApplyWebhook: %v", err)
	}
	if res.TransactionID != "123456" || !res.Paid {
		t.Errorf("result = %+v", res)
	}
	sender.wait(t)
}

func TestApplyWebhookVerbatimStatus(t *testing.T) {
	sender := newFakeSender()
	svc, r := newReconcile(sender)
	seedOrder(t, r, "tx-201")

	res, err := svc.ApplyWebhook(map[string]any{
		"objectId": "tx-201",
		"status":   "chargeback_requested",
	})
	if err != nil {
		t.Fatalf("ApplyWebhook: %v", err)
	}
	if res.Paid {
		t.Error("chargeback treated as paid")
	}
	o, _ := r.Get("tx-201")
	if string(o.Status) != "chargeback_requested" {
		t.Errorf("stored status = %q, want verbatim", o.Status)
	}
	select {
	case ev := <-sender.ch:
		t.Errorf("unexpected event for non-paid status: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestApplyWebhookUnknownTransaction(t *testing.T) {
	svc, _ := newReconcile(newFakeSender())
	_, err := svc.ApplyWebhook(map[string]any{
		"objectId": "missing",
		"status":   "paid",
	})
	var nf ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyWebhookRejectsPendingAfterPaid(t *testing.T) {
	sender := newFakeSender()
	svc, r := newReconcile(sender)
	seedOrder(t, r, "tx-205")

	if _, err := svc.ApplyWebhook(map[string]any{"objectId": "tx-205", "status": "paid"}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	sender.wait(t)

	_, err := svc.ApplyWebhook(map[string]any{"objectId": "tx-205", "status": "waiting_payment"})
	var conflict ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	o, _ := r.Get("tx-205")
	if o.Status != domain.OrderPaid {
		t.Errorf("status = %q, paid order was downgraded", o.Status)
	}
}

func TestApplyWebhookMalformed(t *testing.T) {
	svc, r := newReconcile(newFakeSender())
	seedOrder(t, r, "tx-202")

	var bad ErrBadRequest
	if _, err := svc.ApplyWebhook(map[string]any{"status": "paid"}); !errors.As(err, &bad) {
		t.Fatalf("missing id: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.ApplyWebhook(map[string]any{"objectId": "tx-202"}); !errors.As(err, &bad) {
		t.Fatalf("missing status: err = %v, want ErrBadRequest", err)
	}
	o, _ := r.Get("tx-202")
	if o.Status != domain.OrderPending {
		t.Errorf("status mutated by rejected notification: %q", o.Status)
	}
}

func TestAuthServiceRoundTrip(t *testing.T) {
	s := &AuthService{JWTSecret: "secret"}
	tok, err := s.Issue("ops", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sub, err := s.Verify(tok)
	if err != nil || sub != "ops" {
		t.Fatalf("Verify = (%q, %v)", sub, err)
	}
	if _, err := s.Verify(tok + "x"); err == nil {
		t.Error("tampered token verified")
	}
	other := &AuthService{JWTSecret: "different"}
	if _, err := other.Verify(tok); err == nil {
		t.Error("token verified under wrong secret")
	}
}
