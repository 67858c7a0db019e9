package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"racereg/internal/tickets"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrOrderNotFound is returned when no order matches the given id or number.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when the requested lifecycle
	// transition is not legal from the order's current status.
	ErrInvalidTransition = errors.New("invalid order transition")
)

// bibAdvisoryLockID keys the Postgres advisory transaction lock that
// serializes concurrent bib allocations. Two paid transitions for different
// orders lock different order rows, so they need this shared lock point
// before reading the current maximum.
const bibAdvisoryLockID int64 = 804911

type Repository interface {
	// CreateWithReservation creates the order and commits its stock
	// reservation in one transaction.
	CreateWithReservation(ctx context.Context, order *Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, query OrderListQuery) ([]Order, int64, error)
	OrderNumberExists(ctx context.Context, number string) (bool, error)

	// Lifecycle transitions. The bool result reports whether state changed;
	// re-applying the current status is a successful no-op.
	MarkPaid(ctx context.Context, id uuid.UUID, method, reference string, paidAt time.Time) (*Order, bool, error)
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*Order, bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, target Status) (*Order, bool, error)

	// Race-pack pickup sub-state, constrained to paid orders.
	SetPackCollected(ctx context.Context, id uuid.UUID, collector string, at time.Time) (*Order, error)
	RevertPackCollected(ctx context.Context, id uuid.UUID) (*Order, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithReservation(ctx context.Context, order *Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the category row and commit the reservation first; if stock
		// is short the whole transaction rolls back and no order exists.
		if err := tickets.ReserveInTx(tx, order.TicketCategoryID, order.Quantity); err != nil {
			return err
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetByOrderNumber(ctx context.Context, number string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Where("order_number = ?", number).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, query OrderListQuery) ([]Order, int64, error) {
	var orders []Order
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).Model(&Order{})
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}
	if query.CategoryID != "" {
		if categoryID, err := uuid.Parse(query.CategoryID); err == nil {
			baseQuery = baseQuery.Where("ticket_category_id = ?", categoryID)
		}
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&orders).Error

	return orders, totalCount, err
}

func (r *repository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

// MarkPaid transitions the order to paid, allocating a bib number if the
// order does not already carry one. The whole sequence runs inside one
// transaction with the order row locked, so a duplicate "paid" report can
// never allocate a second bib.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, method, reference string, paidAt time.Time) (*Order, bool, error) {
	var result *Order
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrderTx(tx, id)
		if err != nil {
			return err
		}

		if order.Status == StatusPaid {
			result = order
			return nil
		}
		if !order.Status.CanTransitionTo(StatusPaid) {
			return ErrInvalidTransition
		}

		if order.BibNumber == nil {
			bib, err := allocateBibTx(tx)
			if err != nil {
				return err
			}
			order.BibNumber = &bib
		}

		order.Status = StatusPaid
		if method != "" {
			order.PaymentMethod = method
		}
		if reference != "" {
			order.PaymentReference = reference
		}
		order.PaidAt = &paidAt

		updates := map[string]interface{}{
			"status":            order.Status,
			"bib_number":        order.BibNumber,
			"payment_method":    order.PaymentMethod,
			"payment_reference": order.PaymentReference,
			"paid_at":           order.PaidAt,
			"updated_at":        time.Now().UTC(),
		}
		if err := tx.Model(&Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		result = order
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

// Cancel transitions the order to cancelled, releasing its stock and
// clearing the bib number and paid timestamp in the same transaction.
// Cancelling an already-cancelled order is a no-op.
func (r *repository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*Order, bool, error) {
	var result *Order
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrderTx(tx, id)
		if err != nil {
			return err
		}

		if order.Status == StatusCancelled {
			result = order
			return nil
		}

		// Stock is held from creation, so any non-cancelled order releases.
		if err := tickets.ReleaseInTx(tx, order.TicketCategoryID, order.Quantity); err != nil {
			return err
		}

		order.Status = StatusCancelled
		order.BibNumber = nil
		order.PaidAt = nil
		order.CancelledAt = &at

		updates := map[string]interface{}{
			"status":       StatusCancelled,
			"bib_number":   nil,
			"paid_at":      nil,
			"cancelled_at": at,
			"updated_at":   time.Now().UTC(),
		}
		if err := tx.Model(&Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		result = order
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

// SetStatus applies a pure relabel transition (pending, denied, expired,
// challenge) with no inventory or bib side effects.
func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, target Status) (*Order, bool, error) {
	if target == StatusPaid || target == StatusCancelled {
		// Those transitions carry side effects and have dedicated paths.
		return nil, false, ErrInvalidTransition
	}

	var result *Order
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrderTx(tx, id)
		if err != nil {
			return err
		}

		if order.Status == target {
			result = order
			return nil
		}
		if !order.Status.CanTransitionTo(target) {
			return ErrInvalidTransition
		}

		order.Status = target
		updates := map[string]interface{}{
			"status":     target,
			"updated_at": time.Now().UTC(),
		}
		if err := tx.Model(&Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		result = order
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (r *repository) SetPackCollected(ctx context.Context, id uuid.UUID, collector string, at time.Time) (*Order, error) {
	return r.updatePackState(ctx, id, map[string]interface{}{
		"pack_collected":    true,
		"pack_collected_at": at,
		"pack_collected_by": collector,
		"updated_at":        time.Now().UTC(),
	})
}

func (r *repository) RevertPackCollected(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.updatePackState(ctx, id, map[string]interface{}{
		"pack_collected":    false,
		"pack_collected_at": nil,
		"pack_collected_by": "",
		"updated_at":        time.Now().UTC(),
	})
}

func (r *repository) updatePackState(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Order, error) {
	var result *Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrderTx(tx, id)
		if err != nil {
			return err
		}

		if order.Status != StatusPaid {
			return ErrInvalidTransition
		}

		if err := tx.Model(&Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update pickup state: %w", err)
		}

		if v, ok := updates["pack_collected"].(bool); ok {
			order.PackCollected = v
		}
		if at, ok := updates["pack_collected_at"].(time.Time); ok {
			order.PackCollectedAt = &at
		} else {
			order.PackCollectedAt = nil
		}
		if by, ok := updates["pack_collected_by"].(string); ok {
			order.PackCollectedBy = by
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockOrderQuery builds the SELECT ... FOR UPDATE read for a single order
// row. Every lifecycle transition goes through it, so a duplicate report for
// the same order serializes behind the first transaction.
func lockOrderQuery(tx *gorm.DB, id uuid.UUID) *gorm.DB {
	return tx.
		Where("id = ?", id).
		Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockOrderTx loads the order row under FOR UPDATE inside tx.
func lockOrderTx(tx *gorm.DB, id uuid.UUID) (*Order, error) {
	var order Order
	err := lockOrderQuery(tx, id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return &order, nil
}

// allocateBibTx computes the next dense participant number inside the
// current transaction. The advisory lock serializes allocators; the
// exists-recheck loop is a safety net for a max read that raced an insert
// committed before the lock was taken.
func allocateBibTx(tx *gorm.DB) (string, error) {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", bibAdvisoryLockID).Error; err != nil {
		return "", fmt.Errorf("failed to take bib allocation lock: %w", err)
	}

	var maxBib int
	err := tx.Model(&Order{}).
		Where("status = ? AND bib_number IS NOT NULL", StatusPaid).
		Select("COALESCE(MAX(CAST(bib_number AS INTEGER)), 0)").
		Scan(&maxBib).Error
	if err != nil {
		return "", fmt.Errorf("failed to read max bib number: %w", err)
	}

	return nextFreeBib(maxBib, func(bib string) (bool, error) {
		var count int64
		err := tx.Model(&Order{}).
			Where("bib_number = ?", bib).
			Count(&count).Error
		if err != nil {
			return false, fmt.Errorf("failed to recheck bib number: %w", err)
		}
		return count > 0, nil
	})
}
