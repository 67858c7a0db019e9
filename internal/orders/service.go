package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"racereg/internal/tickets"
	"racereg/pkg/logger"

	"github.com/google/uuid"
)

// PaymentSessionCreator opens a payment session at the gateway for a newly
// created order. Defined here to avoid a dependency cycle with payments.
type PaymentSessionCreator interface {
	CreateSession(ctx context.Context, order *Order) (string, error)
}

// EventPublisher publishes order lifecycle events. Defined here to avoid a
// dependency cycle with notifications; a nil publisher disables publishing.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, order *Order) error
	PublishOrderCancelled(ctx context.Context, order *Order) error
}

// Service interface defines the contract for order business logic
type Service interface {
	Purchase(ctx context.Context, req PurchaseRequest, now time.Time) (*PurchaseResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	ListOrders(ctx context.Context, query OrderListQuery) ([]Order, int64, error)

	// Lifecycle transitions keyed by order number. The bool result reports
	// whether state changed; already-in-target-state is a successful no-op.
	MarkPaid(ctx context.Context, orderNumber, method, reference string, now time.Time) (*Order, bool, error)
	Cancel(ctx context.Context, orderNumber string, now time.Time) (*Order, bool, error)
	ApplyStatus(ctx context.Context, orderNumber string, target Status) (*Order, bool, error)

	// Race-pack pickup, constrained to paid orders.
	MarkPackCollected(ctx context.Context, orderNumber, collector string, now time.Time) (*Order, error)
	RevertPackCollected(ctx context.Context, orderNumber string) (*Order, error)
}

type service struct {
	repo           Repository
	ticketService  tickets.Service
	sessionCreator PaymentSessionCreator
	publisher      EventPublisher
	numberPrefix   string
}

// NewService creates a new order service instance. The publisher may be nil.
func NewService(repo Repository, ticketService tickets.Service, sessionCreator PaymentSessionCreator, publisher EventPublisher, numberPrefix string) Service {
	return &service{
		repo:           repo,
		ticketService:  ticketService,
		sessionCreator: sessionCreator,
		publisher:      publisher,
		numberPrefix:   numberPrefix,
	}
}

// Purchase validates the sale window, reserves inventory, creates the order
// in awaiting_payment and opens a payment session at the gateway.
func (s *service) Purchase(ctx context.Context, req PurchaseRequest, now time.Time) (*PurchaseResponse, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category ID: %w", err)
	}

	category, err := s.ticketService.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	// Active flag and sale window are read-only gates; the stock check
	// itself happens atomically inside CreateWithReservation.
	if !category.Active {
		return nil, tickets.ErrSaleNotActive
	}
	if category.SaleStartAt != nil && now.Before(*category.SaleStartAt) {
		return nil, tickets.ErrSaleNotActive
	}
	if category.SaleEndAt != nil && now.After(*category.SaleEndAt) {
		return nil, tickets.ErrSaleNotActive
	}

	orderNumber, err := s.generateUniqueOrderNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	order := &Order{
		OrderNumber:      orderNumber,
		TicketCategoryID: category.ID,
		Quantity:         req.Quantity,
		UnitPrice:        category.Price,
		TotalPrice:       category.Price * float64(req.Quantity),
		Status:           StatusAwaitingPayment,
		FormData:         req.FormData,
	}

	if err := s.repo.CreateWithReservation(ctx, order); err != nil {
		return nil, err
	}
	s.ticketService.InvalidateAvailabilityCache(ctx)

	token, err := s.sessionCreator.CreateSession(ctx, order)
	if err != nil {
		// The order was committed holding stock; compensate so a retried
		// purchase does not leak reserved inventory.
		if _, _, cancelErr := s.repo.Cancel(ctx, order.ID, now); cancelErr != nil {
			logger.GetDefault().Error("failed to roll back order after gateway error",
				slog.String("order_number", order.OrderNumber),
				slog.Any("error", cancelErr),
			)
		} else {
			s.ticketService.InvalidateAvailabilityCache(ctx)
		}
		return nil, err
	}

	logger.GetDefault().LogOrderCreated(ctx, order.OrderNumber, category.ID.String(), order.Quantity)

	return &PurchaseResponse{
		OrderID:      order.ID.String(),
		OrderNumber:  order.OrderNumber,
		Status:       order.Status,
		Quantity:     order.Quantity,
		UnitPrice:    order.UnitPrice,
		TotalPrice:   order.TotalPrice,
		PaymentToken: token,
		CreatedAt:    order.CreatedAt,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	return s.repo.GetByOrderNumber(ctx, number)
}

func (s *service) ListOrders(ctx context.Context, query OrderListQuery) ([]Order, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *service) MarkPaid(ctx context.Context, orderNumber, method, reference string, now time.Time) (*Order, bool, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, false, err
	}

	updated, changed, err := s.repo.MarkPaid(ctx, order.ID, method, reference, now)
	if err != nil {
		return nil, false, err
	}

	if changed {
		logger.GetDefault().LogOrderPaid(ctx, updated.OrderNumber, derefBib(updated.BibNumber), updated.PaymentMethod)
		s.publishPaid(ctx, updated)
	}
	return updated, changed, nil
}

func (s *service) Cancel(ctx context.Context, orderNumber string, now time.Time) (*Order, bool, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, false, err
	}

	updated, changed, err := s.repo.Cancel(ctx, order.ID, now)
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.ticketService.InvalidateAvailabilityCache(ctx)
		logger.GetDefault().LogOrderCancelled(ctx, updated.OrderNumber, updated.Quantity)
		s.publishCancelled(ctx, updated)
	}
	return updated, changed, nil
}

func (s *service) ApplyStatus(ctx context.Context, orderNumber string, target Status) (*Order, bool, error) {
	if !target.IsValid() {
		return nil, false, ErrInvalidTransition
	}

	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, false, err
	}

	return s.repo.SetStatus(ctx, order.ID, target)
}

const defaultCollector = "Committee"

func (s *service) MarkPackCollected(ctx context.Context, orderNumber, collector string, now time.Time) (*Order, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if collector == "" {
		collector = defaultCollector
	}
	return s.repo.SetPackCollected(ctx, order.ID, collector, now)
}

func (s *service) RevertPackCollected(ctx context.Context, orderNumber string) (*Order, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.repo.RevertPackCollected(ctx, order.ID)
}

// generateUniqueOrderNumber regenerates the random suffix until an unused
// value is found, bounded by a small retry cap.
func (s *service) generateUniqueOrderNumber(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		candidate, err := generateOrderNumber(s.numberPrefix, now)
		if err != nil {
			return "", err
		}

		exists, err := s.repo.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrNumberGenerationExhausted
}

func (s *service) publishPaid(ctx context.Context, order *Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderPaid(ctx, order); err != nil {
		logger.GetDefault().Warn("failed to publish order paid event",
			slog.String("order_number", order.OrderNumber),
			slog.Any("error", err),
		)
	}
}

func (s *service) publishCancelled(ctx context.Context, order *Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderCancelled(ctx, order); err != nil {
		logger.GetDefault().Warn("failed to publish order cancelled event",
			slog.String("order_number", order.OrderNumber),
			slog.Any("error", err),
		)
	}
}

func derefBib(bib *string) string {
	if bib == nil {
		return ""
	}
	return *bib
}
