package usecase

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pix-backend/internal/domain"
	"pix-backend/internal/infrastructure/tracking"
	"pix-backend/internal/queue"
)

// EventSender delivers a lifecycle event to the tracking receiver.
type EventSender interface {
	Enabled() bool
	Send(ctx context.Context, ev tracking.Event) error
}

// Publisher enqueues a message for a background worker.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// ForwardJob is the queue envelope. The worker re-reads the order when it
// runs, so a delayed delivery forwards current state rather than a snapshot.
type ForwardJob struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// TrackingForwarder turns orders into lifecycle events for the tracking
// receiver. With a broker configured it enqueues; otherwise it dispatches on
// a goroutine so the caller's request is never blocked by the receiver.
// Delivery failures are logged and dropped, never surfaced to the caller.
type TrackingForwarder struct {
	Sender      EventSender
	Broker      Publisher
	ProductName string
}

func (f *TrackingForwarder) ForwardPending(o *domain.Order) {
	f.dispatch(o, tracking.StatusWaitingPayment, queue.TrackingPending)
}

func (f *TrackingForwarder) ForwardPaid(o *domain.Order) {
	f.dispatch(o, tracking.StatusPaid, queue.TrackingPaid)
}

func (f *TrackingForwarder) dispatch(o *domain.Order, status, queueName string) {
	if f.Sender == nil || !f.Sender.Enabled() {
		return
	}
	if f.Broker != nil {
		body, _ := json.Marshal(ForwardJob{TransactionID: o.TransactionID, Status: status})
		if err := f.Broker.Publish(context.Background(), queueName, body); err == nil {
			return
		} else {
			log.Printf("tracking: publish to %s failed, sending inline: %v", queueName, err)
		}
	}
	ev := f.BuildEvent(o, status)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := f.Sender.Send(ctx, ev); err != nil {
			log.Printf("tracking: forward %s for %s failed: %v", status, o.TransactionID, err)
		}
	}()
}

// BuildEvent renders the canonical payload for an order at the given
// lifecycle status.
func (f *TrackingForwarder) BuildEvent(o *domain.Order, status string) tracking.Event {
	ev := tracking.Event{
		OrderID:       o.TransactionID,
		Platform:      o.Platform,
		PaymentMethod: "pix",
		Status:        status,
		CreatedAt:     tracking.FormatTime(o.CreatedAt),
		Customer: tracking.Customer{
			Name:     o.Customer.Name,
			Email:    o.Customer.Email,
			Phone:    o.Customer.Phone,
			Document: o.Customer.Document,
			Country:  o.Customer.Country,
			IP:       o.Customer.IP,
		},
		Products: []tracking.Product{{
			ID:           "PROD_" + o.TransactionID,
			Name:         f.ProductName,
			Quantity:     1,
			PriceInCents: o.AmountCents,
		}},
		TrackingParameters: o.Tracking.ToMap(),
		Commission: tracking.Commission{
			TotalPriceInCents:     o.AmountCents,
			GatewayFeeInCents:     o.FeeCents,
			UserCommissionInCents: o.AmountCents - o.FeeCents,
		},
		IsTest: false,
	}
	if status == tracking.StatusPaid {
		ev.ApprovedDate = tracking.FormatTime(o.UpdatedAt)
	}
	return ev
}
