package usecase

import (
	"fmt"
	"log"
	"strings"

	"pix-backend/internal/domain"
)

// ReconcileService applies processor webhook notifications to stored orders
// and forwards paid transitions to tracking.
type ReconcileService struct {
	repo      OrderRepo
	forwarder *TrackingForwarder
}

func NewReconcileService(repo OrderRepo, forwarder *TrackingForwarder) *ReconcileService {
	return &ReconcileService{repo: repo, forwarder: forwarder}
}

// WebhookResult reports what a notification resolved to.
type WebhookResult struct {
	TransactionID string
	Status        string
	Paid          bool
}

// ApplyWebhook extracts the transaction id and status from a notification
// body, applies the status, and forwards a paid event when warranted. The
// status is stored verbatim; only the paid check interprets it.
func (s *ReconcileService) ApplyWebhook(payload map[string]any) (WebhookResult, error) {
	txid := extractTransactionID(payload)
	if txid == "" {
		return WebhookResult{}, ErrBadRequest("notification carries no transaction id")
	}
	status := extractStatus(payload)
	if status == "" {
		return WebhookResult{}, ErrBadRequest("notification carries no status")
	}

	// Paid is terminal: a late or duplicate pending notification must not
	// downgrade it. Every other status still passes through verbatim.
	if isPendingStatus(status) {
		if current, ok := s.repo.Get(txid); ok && domain.IsPaid(string(current.Status)) {
			return WebhookResult{}, ErrConflict("transaction " + txid + " already paid")
		}
	}

	n, err := s.repo.ApplyStatus(txid, status)
	if err != nil {
		return WebhookResult{}, fmt.Errorf("apply status: %w", err)
	}
	if n == 0 {
		return WebhookResult{}, ErrNotFound("unknown transaction " + txid)
	}

	res := WebhookResult{TransactionID: txid, Status: status, Paid: domain.IsPaid(status)}
	if res.Paid {
		o, ok := s.repo.Get(txid)
		if !ok {
			log.Printf("reconcile: order %s vanished after status update", txid)
			return res, nil
		}
		s.forwarder.ForwardPaid(o)
	}
	return res, nil
}

// Notification shapes vary by processor version. The id may arrive under
// several keys and as a string or a number; first match wins.
func extractTransactionID(payload map[string]any) string {
	if v := flexibleString(payload["objectId"]); v != "" {
		return v
	}
	if data, ok := payload["data"].(map[string]any); ok {
		if v := flexibleString(data["id"]); v != "" {
			return v
		}
	}
	if v := flexibleString(payload["payment_code"]); v != "" {
		return v
	}
	return flexibleString(payload["paymentId"])
}

func extractStatus(payload map[string]any) string {
	if ev := flexibleString(payload["event"]); ev != "" {
		switch ev {
		case "transaction.paid":
			return "paid"
		case "transaction.refunded":
			return "refunded"
		case "transaction.cancelled":
			return "cancelled"
		}
	}
	if data, ok := payload["data"].(map[string]any); ok {
		if v := flexibleString(data["status"]); v != "" {
			return v
		}
	}
	if v := flexibleString(payload["payment_status"]); v != "" {
		return v
	}
	return flexibleString(payload["status"])
}

func isPendingStatus(status string) bool {
	switch strings.ToLower(status) {
	case "pending", "waiting_payment":
		return true
	}
	return false
}

func flexibleString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return ""
	}
}
