package tickets

import (
	"time"

	"github.com/google/uuid"
)

// TicketCategory represents a purchasable class of event entry with its own
// price and stock pool. Sold is only ever mutated through Reserve/Release.
type TicketCategory struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string     `json:"name" gorm:"not null;size:255"`
	Description string     `json:"description" gorm:"type:text"`
	Price       float64    `json:"price" gorm:"not null;check:price >= 0"`
	Stock       int        `json:"stock" gorm:"not null;check:stock >= 0"`
	Sold        int        `json:"sold" gorm:"default:0;check:sold >= 0"`
	Active      bool       `json:"active" gorm:"default:true"`
	SaleStartAt *time.Time `json:"sale_start_at"`
	SaleEndAt   *time.Time `json:"sale_end_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for TicketCategory
func (TicketCategory) TableName() string {
	return "ticket_categories"
}

// Available returns the number of unsold tickets.
func (t *TicketCategory) Available() int {
	return t.Stock - t.Sold
}

// IsOnSale reports whether the category can be purchased at the given instant.
// The caller supplies now so sale-window checks stay deterministic in tests.
func (t *TicketCategory) IsOnSale(now time.Time) bool {
	if !t.Active || t.Available() <= 0 {
		return false
	}
	if t.SaleStartAt != nil && now.Before(*t.SaleStartAt) {
		return false
	}
	if t.SaleEndAt != nil && now.After(*t.SaleEndAt) {
		return false
	}
	return true
}

// CategoryResponse represents a ticket category in API responses
type CategoryResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	Sold        int        `json:"sold"`
	Available   int        `json:"available"`
	Active      bool       `json:"active"`
	OnSale      bool       `json:"on_sale"`
	SaleStartAt *time.Time `json:"sale_start_at,omitempty"`
	SaleEndAt   *time.Time `json:"sale_end_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToResponse converts a category to its API representation.
func (t *TicketCategory) ToResponse(now time.Time) CategoryResponse {
	return CategoryResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Stock:       t.Stock,
		Sold:        t.Sold,
		Available:   t.Available(),
		Active:      t.Active,
		OnSale:      t.IsOnSale(now),
		SaleStartAt: t.SaleStartAt,
		SaleEndAt:   t.SaleEndAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// CreateCategoryRequest represents the admin payload for creating a category
type CreateCategoryRequest struct {
	Name        string     `json:"name" binding:"required,min=3,max=255"`
	Description string     `json:"description" binding:"max=2000"`
	Price       float64    `json:"price" binding:"required,min=0"`
	Stock       int        `json:"stock" binding:"required,min=1,max=100000"`
	Active      *bool      `json:"active"`
	SaleStartAt *time.Time `json:"sale_start_at"`
	SaleEndAt   *time.Time `json:"sale_end_at"`
}

// UpdateCategoryRequest represents the admin payload for updating a category
type UpdateCategoryRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Price       *float64   `json:"price" binding:"omitempty,min=0"`
	Stock       *int       `json:"stock" binding:"omitempty,min=1,max=100000"`
	Active      *bool      `json:"active"`
	SaleStartAt *time.Time `json:"sale_start_at"`
	SaleEndAt   *time.Time `json:"sale_end_at"`
}
