package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"racereg/internal/tickets"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock Repository

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateWithReservation(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if order, ok := args.Get(0).(*Order); ok {
		return order, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetByOrderNumber(ctx context.Context, number string) (*Order, error) {
	args := m.Called(ctx, number)
	if order, ok := args.Get(0).(*Order); ok {
		return order, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, query OrderListQuery) ([]Order, int64, error) {
	args := m.Called(ctx, query)
	if orders, ok := args.Get(0).([]Order); ok {
		return orders, args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockRepository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MarkPaid(ctx context.Context, id uuid.UUID, method, reference string, paidAt time.Time) (*Order, bool, error) {
	args := m.Called(ctx, id, method, reference, paidAt)
	if order, ok := args.Get(0).(*Order); ok {
		return order, args.Bool(1), args.Error(2)
	}
	return nil, false, args.Error(2)
}

func (m *MockRepository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*Order, bool, error) {
	args := m.Called(ctx, id, at)
	if order, ok := args.Get(0).(*Order); ok {
		return order, args.Bool(1), args.Error(2)
	}
	return nil, false, args.Error(2)
}

func (m *MockRepository) SetStatus(ctx context.Context, id uuid.UUID, target Status) (*Order, bool, error) {
	args := m.Called(ctx, id, target)
	if order, ok := args.Get(0).(*Order); ok {
		return order, args.Bool(1), args.Error(2)
	}
	return nil, false, args.Error(2)
}

func (m *MockRepository) SetPackCollected(ctx context.Context, id uuid.UUID, collector string, at time.Time) (*Order, error) {
	args := m.Called(ctx, id, collector, at)
	if order, ok := args.Get(0).(*Order); ok {
		return order, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) RevertPackCollected(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if order, ok := args.Get(0).(*Order); ok {
		return order, args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock ticket service

type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) ListCategories(ctx context.Context, now time.Time) ([]tickets.CategoryResponse, error) {
	args := m.Called(ctx, now)
	if resp, ok := args.Get(0).([]tickets.CategoryResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketService) GetCategory(ctx context.Context, id uuid.UUID) (*tickets.TicketCategory, error) {
	args := m.Called(ctx, id)
	if category, ok := args.Get(0).(*tickets.TicketCategory); ok {
		return category, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketService) CreateCategory(ctx context.Context, req tickets.CreateCategoryRequest) (*tickets.TicketCategory, error) {
	args := m.Called(ctx, req)
	if category, ok := args.Get(0).(*tickets.TicketCategory); ok {
		return category, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketService) UpdateCategory(ctx context.Context, id uuid.UUID, req tickets.UpdateCategoryRequest) (*tickets.TicketCategory, error) {
	args := m.Called(ctx, id, req)
	if category, ok := args.Get(0).(*tickets.TicketCategory); ok {
		return category, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketService) Reserve(ctx context.Context, id uuid.UUID, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

func (m *MockTicketService) Release(ctx context.Context, id uuid.UUID, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

func (m *MockTicketService) InvalidateAvailabilityCache(ctx context.Context) {
	m.Called(ctx)
}

// Mock session creator and publisher

type MockSessionCreator struct {
	mock.Mock
}

func (m *MockSessionCreator) CreateSession(ctx context.Context, order *Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderPaid(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPublisher) PublishOrderCancelled(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// Helpers

func onSaleCategory(now time.Time) *tickets.TicketCategory {
	start := now.Add(-24 * time.Hour)
	end := now.Add(24 * time.Hour)
	return &tickets.TicketCategory{
		ID:          uuid.New(),
		Name:        "10K",
		Price:       250000,
		Stock:       100,
		Sold:        10,
		Active:      true,
		SaleStartAt: &start,
		SaleEndAt:   &end,
	}
}

func newTestService(repo *MockRepository, ts *MockTicketService, sc *MockSessionCreator, pub EventPublisher) Service {
	return NewService(repo, ts, sc, pub, "RUN")
}

// Tests

func TestPurchaseSuccess(t *testing.T) {
	now := time.Now()
	category := onSaleCategory(now)

	repo := new(MockRepository)
	ts := new(MockTicketService)
	sc := new(MockSessionCreator)

	ts.On("GetCategory", mock.Anything, category.ID).Return(category, nil)
	repo.On("OrderNumberExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	repo.On("CreateWithReservation", mock.Anything, mock.AnythingOfType("*orders.Order")).Return(nil)
	ts.On("InvalidateAvailabilityCache", mock.Anything).Return()
	sc.On("CreateSession", mock.Anything, mock.AnythingOfType("*orders.Order")).Return("session-token", nil)

	svc := newTestService(repo, ts, sc, nil)
	resp, err := svc.Purchase(context.Background(), PurchaseRequest{
		CategoryID: category.ID.String(),
		Quantity:   2,
		FormData:   map[string]interface{}{"name": "Andi Wijaya"},
	}, now)

	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingPayment, resp.Status)
	assert.Equal(t, 2, resp.Quantity)
	assert.Equal(t, 500000.0, resp.TotalPrice)
	assert.Equal(t, "session-token", resp.PaymentToken)
	assert.Regexp(t, `^RUN-\d{8}-[A-Z]{6}$`, resp.OrderNumber)

	repo.AssertExpectations(t)
	ts.AssertExpectations(t)
	sc.AssertExpectations(t)
}

func TestPurchaseRejectsInactiveCategory(t *testing.T) {
	now := time.Now()
	category := onSaleCategory(now)
	category.Active = false

	repo := new(MockRepository)
	ts := new(MockTicketService)
	ts.On("GetCategory", mock.Anything, category.ID).Return(category, nil)

	svc := newTestService(repo, ts, new(MockSessionCreator), nil)
	_, err := svc.Purchase(context.Background(), PurchaseRequest{
		CategoryID: category.ID.String(),
		Quantity:   1,
		FormData:   map[string]interface{}{"name": "X"},
	}, now)

	assert.ErrorIs(t, err, tickets.ErrSaleNotActive)
	repo.AssertNotCalled(t, "CreateWithReservation", mock.Anything, mock.Anything)
}

func TestPurchaseRejectsOutsideSaleWindow(t *testing.T) {
	now := time.Now()

	beforeStart := onSaleCategory(now)
	start := now.Add(1 * time.Hour)
	beforeStart.SaleStartAt = &start

	afterEnd := onSaleCategory(now)
	end := now.Add(-1 * time.Hour)
	afterEnd.SaleEndAt = &end

	for name, category := range map[string]*tickets.TicketCategory{
		"before start": beforeStart,
		"after end":    afterEnd,
	} {
		t.Run(name, func(t *testing.T) {
			ts := new(MockTicketService)
			ts.On("GetCategory", mock.Anything, category.ID).Return(category, nil)

			svc := newTestService(new(MockRepository), ts, new(MockSessionCreator), nil)
			_, err := svc.Purchase(context.Background(), PurchaseRequest{
				CategoryID: category.ID.String(),
				Quantity:   1,
				FormData:   map[string]interface{}{"name": "X"},
			}, now)

			assert.ErrorIs(t, err, tickets.ErrSaleNotActive)
		})
	}
}

func TestPurchasePropagatesInsufficientStock(t *testing.T) {
	now := time.Now()
	category := onSaleCategory(now)

	repo := new(MockRepository)
	ts := new(MockTicketService)

	ts.On("GetCategory", mock.Anything, category.ID).Return(category, nil)
	repo.On("OrderNumberExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	repo.On("CreateWithReservation", mock.Anything, mock.Anything).Return(tickets.ErrInsufficientStock)

	svc := newTestService(repo, ts, new(MockSessionCreator), nil)
	_, err := svc.Purchase(context.Background(), PurchaseRequest{
		CategoryID: category.ID.String(),
		Quantity:   5,
		FormData:   map[string]interface{}{"name": "X"},
	}, now)

	assert.ErrorIs(t, err, tickets.ErrInsufficientStock)
}

func TestPurchaseCompensatesWhenGatewayFails(t *testing.T) {
	now := time.Now()
	category := onSaleCategory(now)
	gatewayErr := errors.New("gateway unreachable")

	repo := new(MockRepository)
	ts := new(MockTicketService)
	sc := new(MockSessionCreator)

	ts.On("GetCategory", mock.Anything, category.ID).Return(category, nil)
	repo.On("OrderNumberExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	repo.On("CreateWithReservation", mock.Anything, mock.Anything).Return(nil)
	ts.On("InvalidateAvailabilityCache", mock.Anything).Return()
	sc.On("CreateSession", mock.Anything, mock.Anything).Return("", gatewayErr)
	repo.On("Cancel", mock.Anything, mock.Anything, now).Return(&Order{Status: StatusCancelled}, true, nil)

	svc := newTestService(repo, ts, sc, nil)
	_, err := svc.Purchase(context.Background(), PurchaseRequest{
		CategoryID: category.ID.String(),
		Quantity:   1,
		FormData:   map[string]interface{}{"name": "X"},
	}, now)

	assert.ErrorIs(t, err, gatewayErr)
	repo.AssertCalled(t, "Cancel", mock.Anything, mock.Anything, now)
}

func TestPurchaseExhaustsOrderNumberRetries(t *testing.T) {
	now := time.Now()
	category := onSaleCategory(now)

	repo := new(MockRepository)
	ts := new(MockTicketService)

	ts.On("GetCategory", mock.Anything, category.ID).Return(category, nil)
	repo.On("OrderNumberExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	svc := newTestService(repo, ts, new(MockSessionCreator), nil)
	_, err := svc.Purchase(context.Background(), PurchaseRequest{
		CategoryID: category.ID.String(),
		Quantity:   1,
		FormData:   map[string]interface{}{"name": "X"},
	}, now)

	assert.ErrorIs(t, err, ErrNumberGenerationExhausted)
	repo.AssertNumberOfCalls(t, "OrderNumberExists", orderNumberAttempts)
}

func TestMarkPaidPublishesOnChange(t *testing.T) {
	now := time.Now()
	order := &Order{ID: uuid.New(), OrderNumber: "RUN-20260810-ABCDEF", Status: StatusAwaitingPayment}
	bib := FormatBibNumber(7)
	paid := &Order{ID: order.ID, OrderNumber: order.OrderNumber, Status: StatusPaid, BibNumber: &bib, PaymentMethod: "qris"}

	repo := new(MockRepository)
	ts := new(MockTicketService)
	pub := new(MockPublisher)

	repo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	repo.On("MarkPaid", mock.Anything, order.ID, "qris", "txn-1", now).Return(paid, true, nil)
	pub.On("PublishOrderPaid", mock.Anything, paid).Return(nil)

	svc := newTestService(repo, ts, new(MockSessionCreator), pub)
	updated, changed, err := svc.MarkPaid(context.Background(), order.OrderNumber, "qris", "txn-1", now)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusPaid, updated.Status)
	require.NotNil(t, updated.BibNumber)
	assert.Equal(t, "00007", *updated.BibNumber)
	pub.AssertExpectations(t)
}

func TestMarkPaidIdempotentNoPublish(t *testing.T) {
	now := time.Now()
	bib := FormatBibNumber(3)
	order := &Order{ID: uuid.New(), OrderNumber: "RUN-20260810-ABCDEF", Status: StatusPaid, BibNumber: &bib}

	repo := new(MockRepository)
	pub := new(MockPublisher)

	repo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	repo.On("MarkPaid", mock.Anything, order.ID, "qris", "txn-1", now).Return(order, false, nil)

	svc := newTestService(repo, new(MockTicketService), new(MockSessionCreator), pub)
	updated, changed, err := svc.MarkPaid(context.Background(), order.OrderNumber, "qris", "txn-1", now)

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "00003", *updated.BibNumber)
	pub.AssertNotCalled(t, "PublishOrderPaid", mock.Anything, mock.Anything)
}

func TestCancelReleasesAndPublishes(t *testing.T) {
	now := time.Now()
	order := &Order{ID: uuid.New(), OrderNumber: "RUN-20260810-ABCDEF", Status: StatusPaid, Quantity: 2}
	cancelled := &Order{ID: order.ID, OrderNumber: order.OrderNumber, Status: StatusCancelled, Quantity: 2}

	repo := new(MockRepository)
	ts := new(MockTicketService)
	pub := new(MockPublisher)

	repo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	repo.On("Cancel", mock.Anything, order.ID, now).Return(cancelled, true, nil)
	ts.On("InvalidateAvailabilityCache", mock.Anything).Return()
	pub.On("PublishOrderCancelled", mock.Anything, cancelled).Return(nil)

	svc := newTestService(repo, ts, new(MockSessionCreator), pub)
	updated, changed, err := svc.Cancel(context.Background(), order.OrderNumber, now)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, updated.BibNumber)
	ts.AssertCalled(t, "InvalidateAvailabilityCache", mock.Anything)
	pub.AssertExpectations(t)
}

func TestApplyStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(new(MockRepository), new(MockTicketService), new(MockSessionCreator), nil)
	_, _, err := svc.ApplyStatus(context.Background(), "RUN-20260810-ABCDEF", Status("haywire"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkPackCollectedDefaultsCollector(t *testing.T) {
	now := time.Now()
	order := &Order{ID: uuid.New(), OrderNumber: "RUN-20260810-ABCDEF", Status: StatusPaid}

	repo := new(MockRepository)
	repo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	repo.On("SetPackCollected", mock.Anything, order.ID, "Committee", now).Return(order, nil)

	svc := newTestService(repo, new(MockTicketService), new(MockSessionCreator), nil)
	_, err := svc.MarkPackCollected(context.Background(), order.OrderNumber, "", now)

	require.NoError(t, err)
	repo.AssertCalled(t, "SetPackCollected", mock.Anything, order.ID, "Committee", now)
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByOrderNumber", mock.Anything, "RUN-20260810-MISSIN").Return(nil, ErrOrderNotFound)

	svc := newTestService(repo, new(MockTicketService), new(MockSessionCreator), nil)
	_, _, err := svc.MarkPaid(context.Background(), "RUN-20260810-MISSIN", "", "", time.Now())

	assert.ErrorIs(t, err, ErrOrderNotFound)
}
