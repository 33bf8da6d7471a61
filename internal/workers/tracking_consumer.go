package workers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pix-backend/internal/queue"
	"pix-backend/internal/usecase"
)

// TrackingConsumer drains the lifecycle queues and delivers each job to the
// tracking receiver. It re-reads the order at delivery time, so a requeued
// job always forwards current data.
type TrackingConsumer struct {
	Repo      usecase.OrderRepo
	Forwarder *usecase.TrackingForwarder
	Sender    usecase.EventSender
}

func (c *TrackingConsumer) Start(b *queue.Broker) error {
	for _, name := range []string{queue.TrackingPending, queue.TrackingPaid} {
		if err := b.Consume(name, c.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle processes one queued job. A nil return acks the message; malformed
// jobs and vanished orders are dropped rather than requeued, since a retry
// can never fix them.
func (c *TrackingConsumer) Handle(body []byte) error {
	var job usecase.ForwardJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.Printf("tracking worker: dropping malformed job: %v", err)
		return nil
	}
	o, ok := c.Repo.Get(job.TransactionID)
	if !ok {
		log.Printf("tracking worker: dropping job for unknown order %s", job.TransactionID)
		return nil
	}
	ev := c.Forwarder.BuildEvent(o, job.Status)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.Sender.Send(ctx, ev)
}
