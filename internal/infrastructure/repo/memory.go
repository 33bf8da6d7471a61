package repo

import (
	"sort"
	"sync"
	"time"

	"pix-backend/internal/domain"
)

// MemoryOrderRepo is the in-process counterpart of PostgresOrderRepo, used in
// tests and when no database is configured. The mutex serializes writes for
// every key.
type MemoryOrderRepo struct {
	mu sync.RWMutex
	m  map[string]*domain.Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{m: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepo) UpsertPending(o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.m[o.TransactionID]; ok {
		existing.Status = domain.OrderPending
		existing.PixCode = o.PixCode
		existing.UpdatedAt = o.UpdatedAt
		return nil
	}
	cp := *o
	cp.Status = domain.OrderPending
	r.m[o.TransactionID] = &cp
	return nil
}

func (r *MemoryOrderRepo) ApplyStatus(transactionID, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[transactionID]
	if !ok {
		return 0, nil
	}
	o.Status = domain.OrderStatus(status)
	o.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (r *MemoryOrderRepo) Get(transactionID string) (*domain.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[transactionID]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}

func (r *MemoryOrderRepo) ListAll() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.m))
	for id := range r.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
