package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Order represents one purchase transaction for a quantity of a single
// ticket category. The bib number is present exactly while the order is paid.
type Order struct {
	ID               uuid.UUID         `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	OrderNumber      string            `json:"order_number" gorm:"unique;not null;size:32"`
	BibNumber        *string           `json:"bib_number,omitempty" gorm:"unique;size:8"`
	TicketCategoryID uuid.UUID         `json:"ticket_category_id" gorm:"type:uuid;index;not null"`
	Quantity         int               `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice        float64           `json:"unit_price" gorm:"not null"`
	TotalPrice       float64           `json:"total_price" gorm:"not null"`
	Status           Status            `json:"status" gorm:"type:varchar(20);index;default:'awaiting_payment'"`
	PaymentMethod    string            `json:"payment_method" gorm:"size:50"`
	PaymentReference string            `json:"payment_reference" gorm:"size:100"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	FormData         datatypes.JSONMap `json:"form_data" gorm:"type:jsonb"`

	// Race-pack pickup sub-state, only valid while the order is paid.
	PackCollected   bool       `json:"pack_collected" gorm:"default:false"`
	PackCollectedAt *time.Time `json:"pack_collected_at,omitempty"`
	PackCollectedBy string     `json:"pack_collected_by,omitempty" gorm:"size:100"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// TableName sets the table name for Order
func (Order) TableName() string {
	return "orders"
}

func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid
}

func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// CustomerView is a read-only projection over the opaque registrant form
// payload. The core never interprets the payload beyond this view.
type CustomerView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

const fallbackCustomerName = "Guest Participant"

// Customer synthesizes a customer view from the captured form data with
// explicit fallback defaults for missing fields.
func (o *Order) Customer() CustomerView {
	view := CustomerView{Name: fallbackCustomerName}

	if v, ok := o.FormData["name"].(string); ok && v != "" {
		view.Name = v
	} else if v, ok := o.FormData["full_name"].(string); ok && v != "" {
		view.Name = v
	}
	if v, ok := o.FormData["email"].(string); ok {
		view.Email = v
	}
	if v, ok := o.FormData["phone"].(string); ok {
		view.Phone = v
	}
	return view
}

// PurchaseRequest represents a purchase attempt for a ticket category
type PurchaseRequest struct {
	CategoryID string                 `json:"category_id" binding:"required,uuid"`
	Quantity   int                    `json:"quantity" binding:"required,min=1,max=10"`
	FormData   map[string]interface{} `json:"form_data" binding:"required"`
}

// PurchaseResponse represents the result of a successful purchase
type PurchaseResponse struct {
	OrderID      string    `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	Status       Status    `json:"status"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	TotalPrice   float64   `json:"total_price"`
	PaymentToken string    `json:"payment_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               string       `json:"id"`
	OrderNumber      string       `json:"order_number"`
	BibNumber        *string      `json:"bib_number,omitempty"`
	TicketCategoryID string       `json:"ticket_category_id"`
	Quantity         int          `json:"quantity"`
	UnitPrice        float64      `json:"unit_price"`
	TotalPrice       float64      `json:"total_price"`
	Status           Status       `json:"status"`
	PaymentMethod    string       `json:"payment_method,omitempty"`
	PaymentReference string       `json:"payment_reference,omitempty"`
	PaidAt           *time.Time   `json:"paid_at,omitempty"`
	Customer         CustomerView `json:"customer"`
	PackCollected    bool         `json:"pack_collected"`
	PackCollectedAt  *time.Time   `json:"pack_collected_at,omitempty"`
	PackCollectedBy  string       `json:"pack_collected_by,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	CancelledAt      *time.Time   `json:"cancelled_at,omitempty"`
}

// ToResponse converts an order to its API representation.
func (o *Order) ToResponse() OrderResponse {
	return OrderResponse{
		ID:               o.ID.String(),
		OrderNumber:      o.OrderNumber,
		BibNumber:        o.BibNumber,
		TicketCategoryID: o.TicketCategoryID.String(),
		Quantity:         o.Quantity,
		UnitPrice:        o.UnitPrice,
		TotalPrice:       o.TotalPrice,
		Status:           o.Status,
		PaymentMethod:    o.PaymentMethod,
		PaymentReference: o.PaymentReference,
		PaidAt:           o.PaidAt,
		Customer:         o.Customer(),
		PackCollected:    o.PackCollected,
		PackCollectedAt:  o.PackCollectedAt,
		PackCollectedBy:  o.PackCollectedBy,
		CreatedAt:        o.CreatedAt,
		CancelledAt:      o.CancelledAt,
	}
}

// OrderListQuery holds filters for admin order listings
type OrderListQuery struct {
	Status     string `form:"status"`
	CategoryID string `form:"category_id"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// PackPickupRequest represents a race-pack pickup toggle
type PackPickupRequest struct {
	Collector string `json:"collector" binding:"max=100"`
}

// MarkPaidRequest is the trusted internal override payload
type MarkPaidRequest struct {
	PaymentMethod    string `json:"payment_method" binding:"max=50"`
	PaymentReference string `json:"payment_reference" binding:"max=100"`
}
