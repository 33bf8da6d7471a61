package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pix-backend/internal/domain"
	"pix-backend/internal/identity"
	"pix-backend/internal/infrastructure/processor"
	"pix-backend/internal/money"
)

// OrderRepo is the persistence surface the services need.
type OrderRepo interface {
	UpsertPending(o *domain.Order) error
	ApplyStatus(transactionID, status string) (int64, error)
	Get(transactionID string) (*domain.Order, bool)
	ListAll() ([]string, error)
}

// TransactionCreator creates a pix charge at the payment processor.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, req processor.CreateRequest) (processor.CreateResult, error)
}

type CheckoutInput struct {
	Amount    string
	Name      string
	Email     string
	Phone     string
	Document  string
	Reference string
	IP        string
	Tracking  map[string]any
}

type CheckoutOutput struct {
	TransactionID string
	Status        domain.OrderStatus
	AmountCents   int
	PixCode       string
	QRCodeURL     string
	Txid          string
	UsedRealData  bool
}

// CheckoutService drives order creation: normalize the amount, complete the
// customer identity, create the charge, persist, and announce the pending
// order to tracking.
type CheckoutService struct {
	repo      OrderRepo
	creator   TransactionCreator
	ident     *identity.Synthesizer
	forwarder *TrackingForwarder

	platform      string
	defaultAmount int
}

func NewCheckoutService(repo OrderRepo, creator TransactionCreator, ident *identity.Synthesizer, forwarder *TrackingForwarder, platform string, defaultAmount int) *CheckoutService {
	return &CheckoutService{
		repo:          repo,
		creator:       creator,
		ident:         ident,
		forwarder:     forwarder,
		platform:      platform,
		defaultAmount: defaultAmount,
	}
}

func (s *CheckoutService) CreateOrder(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	cents, err := money.Normalize(s.defaultAmount, in.Amount)
	if err != nil {
		return CheckoutOutput{}, ErrBadRequest(err.Error())
	}

	rec := s.ident.Complete(identity.Input{
		Name:     in.Name,
		Document: in.Document,
		Phone:    in.Phone,
		Email:    in.Email,
	})
	tp := domain.TrackingParamsFromMap(in.Tracking)

	ref := in.Reference
	if ref == "" {
		ref = uuid.NewString()[:8]
	}
	externalRef := fmt.Sprintf("md-%s-%d", ref, time.Now().Unix())

	metadata, _ := json.Marshal(tp.ToMap())
	res, err := s.creator.CreateTransaction(ctx, processor.CreateRequest{
		AmountCents:   cents,
		CustomerName:  rec.Name,
		CustomerEmail: rec.Email,
		CustomerPhone: rec.Phone,
		Document:      rec.Document,
		ExternalRef:   externalRef,
		ItemRef:       uuid.NewString(),
		Metadata:      string(metadata),
		IP:            in.IP,
	})
	if err != nil {
		return CheckoutOutput{}, ErrUpstream(err.Error())
	}

	now := time.Now().UTC()
	order := &domain.Order{
		TransactionID: res.TransactionID,
		Status:        domain.OrderPending,
		AmountCents:   cents,
		FeeCents:      res.FeeCents,
		PaymentMethod: "pix",
		Platform:      s.platform,
		PixCode:       res.PixCode,
		Customer: domain.Customer{
			Name:     rec.Name,
			Email:    rec.Email,
			Document: rec.Document,
			Phone:    rec.Phone,
			Country:  "BR",
			IP:       in.IP,
		},
		UsedRealData: rec.UsedRealData,
		Tracking:     tp,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The charge already happened at the processor, so a persistence failure
	// is a degraded success: the caller still gets the transaction id and the
	// pix code, and the id stays on record in the log.
	if err := s.repo.UpsertPending(order); err != nil {
		log.Printf("checkout: transaction %s charged but not persisted: %v", order.TransactionID, err)
	}

	s.forwarder.ForwardPending(order)

	return CheckoutOutput{
		TransactionID: order.TransactionID,
		Status:        order.Status,
		AmountCents:   cents,
		PixCode:       res.PixCode,
		QRCodeURL:     res.ReceiptURL,
		Txid:          res.Txid,
		UsedRealData:  rec.UsedRealData,
	}, nil
}

func (s *CheckoutService) GetOrder(transactionID string) (*domain.Order, error) {
	o, ok := s.repo.Get(transactionID)
	if !ok {
		return nil, ErrNotFound("order not found")
	}
	return o, nil
}

func (s *CheckoutService) ListOrders() ([]string, error) {
	return s.repo.ListAll()
}
