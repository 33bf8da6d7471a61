package repo

import (
	"sync"
	"testing"
	"time"

	"pix-backend/internal/domain"
)

func pendingOrder(id string, pix string) *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		TransactionID: id,
		Status:        domain.OrderPending,
		AmountCents:   5940,
		PaymentMethod: "pix",
		PixCode:       pix,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestUpsertPendingIdempotent(t *testing.T) {
	r := NewMemoryOrderRepo()
	if err := r.UpsertPending(pendingOrder("tx-1", "pix-a")); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := r.UpsertPending(pendingOrder("tx-1", "pix-b")); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	ids, _ := r.ListAll()
	if len(ids) != 1 {
		t.Fatalf("ListAll = %v, want one row", ids)
	}
	o, ok := r.Get("tx-1")
	if !ok {
		t.Fatalf("order not found after upsert")
	}
	if o.PixCode != "pix-b" {
		t.Errorf("PixCode = %q, want latest %q", o.PixCode, "pix-b")
	}
	if o.AmountCents != 5940 {
		t.Errorf("AmountCents = %d, mutated by re-upsert", o.AmountCents)
	}
}

func TestUpsertPendingDoesNotRewriteAmount(t *testing.T) {
	r := NewMemoryOrderRepo()
	first := pendingOrder("tx-2", "pix-a")
	_ = r.UpsertPending(first)

	second := pendingOrder("tx-2", "pix-b")
	second.AmountCents = 100
	_ = r.UpsertPending(second)

	o, _ := r.Get("tx-2")
	if o.AmountCents != 5940 {
		t.Errorf("AmountCents = %d, want the creation value 5940", o.AmountCents)
	}
}

func TestApplyStatus(t *testing.T) {
	r := NewMemoryOrderRepo()
	_ = r.UpsertPending(pendingOrder("tx-3", ""))

	before, _ := r.Get("tx-3")
	n, err := r.ApplyStatus("tx-3", "paid")
	if err != nil || n != 1 {
		t.Fatalf("ApplyStatus = (%d, %v), want (1, nil)", n, err)
	}
	after, _ := r.Get("tx-3")
	if after.Status != domain.OrderPaid {
		t.Errorf("Status = %q, want paid", after.Status)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) && !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards")
	}

	n, err = r.ApplyStatus("missing", "paid")
	if err != nil || n != 0 {
		t.Fatalf("ApplyStatus(missing) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestApplyStatusPassthrough(t *testing.T) {
	r := NewMemoryOrderRepo()
	_ = r.UpsertPending(pendingOrder("tx-4", ""))
	if _, err := r.ApplyStatus("tx-4", "chargeback_requested"); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	o, _ := r.Get("tx-4")
	if string(o.Status) != "chargeback_requested" {
		t.Errorf("Status = %q, want verbatim passthrough", o.Status)
	}
}

func TestConcurrentWritesSameKey(t *testing.T) {
	r := NewMemoryOrderRepo()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.UpsertPending(pendingOrder("tx-race", "pix"))
		}()
		go func() {
			defer wg.Done()
			_, _ = r.ApplyStatus("tx-race", "paid")
		}()
	}
	wg.Wait()

	ids, _ := r.ListAll()
	if len(ids) != 1 {
		t.Fatalf("ListAll = %v, want exactly one row after racing writers", ids)
	}
}
