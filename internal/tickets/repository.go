package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInsufficientStock is returned when a reservation asks for more
	// tickets than the category has left.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCategoryNotFound is returned when the ticket category does not exist.
	ErrCategoryNotFound = errors.New("ticket category not found")

	// ErrSaleNotActive is returned when the category is inactive or the
	// current time falls outside its sale window.
	ErrSaleNotActive = errors.New("ticket category is not on sale")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TicketCategory, error)
	List(ctx context.Context) ([]TicketCategory, error)
	Create(ctx context.Context, category *TicketCategory) error
	Update(ctx context.Context, category *TicketCategory) error

	// Atomic inventory operations
	Reserve(ctx context.Context, id uuid.UUID, qty int) error
	Release(ctx context.Context, id uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*TicketCategory, error) {
	var category TicketCategory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *repository) List(ctx context.Context) ([]TicketCategory, error) {
	var categories []TicketCategory
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&categories).Error
	return categories, err
}

func (r *repository) Create(ctx context.Context, category *TicketCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) Update(ctx context.Context, category *TicketCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// Reserve commits qty units against the category's stock. The check and the
// increment run under a row lock inside one transaction so two concurrent
// reservations can never both validate against the same stale sold count.
func (r *repository) Reserve(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ReserveInTx(tx, id, qty)
	})
}

// lockCategoryQuery builds the SELECT ... FOR UPDATE read that guards the
// check-and-increment. The row lock is held until tx commits.
func lockCategoryQuery(tx *gorm.DB, id uuid.UUID) *gorm.DB {
	return tx.Table("ticket_categories").
		Select("id, stock, sold").
		Where("id = ?", id).
		Clauses(clause.Locking{Strength: "UPDATE"})
}

// ReserveInTx performs the locked check-and-increment inside an existing
// transaction. Order creation composes with this so that no order row is
// ever committed without its stock.
func ReserveInTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	var category struct {
		ID    uuid.UUID `gorm:"column:id"`
		Stock int       `gorm:"column:stock"`
		Sold  int       `gorm:"column:sold"`
	}

	err := lockCategoryQuery(tx, id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to lock ticket category: %w", err)
	}

	if category.Stock-category.Sold < qty {
		return ErrInsufficientStock
	}

	err = tx.Table("ticket_categories").
		Where("id = ?", id).
		Update("sold", gorm.Expr("sold + ?", qty)).Error
	if err != nil {
		return fmt.Errorf("failed to update sold count: %w", err)
	}

	return nil
}

// Release returns qty units to the category's pool, flooring sold at zero.
func (r *repository) Release(ctx context.Context, id uuid.UUID, qty int) error {
	return ReleaseInTx(r.db.WithContext(ctx), id, qty)
}

// ReleaseInTx performs the release inside an existing transaction so that
// cancellation can pair it with the order status write.
func ReleaseInTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	result := tx.Table("ticket_categories").
		Where("id = ?", id).
		Update("sold", gorm.Expr("GREATEST(sold - ?, 0)", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to release stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
