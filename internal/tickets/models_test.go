package tickets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAvailable(t *testing.T) {
	category := TicketCategory{Stock: 100, Sold: 37}
	assert.Equal(t, 63, category.Available())

	soldOut := TicketCategory{Stock: 50, Sold: 50}
	assert.Equal(t, 0, soldOut.Available())
}

func TestIsOnSale(t *testing.T) {
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name     string
		category TicketCategory
		want     bool
	}{
		{
			name:     "open window with stock",
			category: TicketCategory{Stock: 10, Active: true, SaleStartAt: &before, SaleEndAt: &after},
			want:     true,
		},
		{
			name:     "no window bounds",
			category: TicketCategory{Stock: 10, Active: true},
			want:     true,
		},
		{
			name:     "inactive",
			category: TicketCategory{Stock: 10, Active: false, SaleStartAt: &before, SaleEndAt: &after},
			want:     false,
		},
		{
			name:     "sold out",
			category: TicketCategory{Stock: 10, Sold: 10, Active: true, SaleStartAt: &before, SaleEndAt: &after},
			want:     false,
		},
		{
			name:     "before sale start",
			category: TicketCategory{Stock: 10, Active: true, SaleStartAt: &after},
			want:     false,
		},
		{
			name:     "after sale end",
			category: TicketCategory{Stock: 10, Active: true, SaleEndAt: &before},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.IsOnSale(now))
		})
	}
}

func TestToResponseComputesAvailability(t *testing.T) {
	now := time.Now()
	category := TicketCategory{Name: "5K Fun Run", Stock: 500, Sold: 120, Active: true}

	resp := category.ToResponse(now)

	assert.Equal(t, 380, resp.Available)
	assert.True(t, resp.OnSale)
	assert.Equal(t, "5K Fun Run", resp.Name)
}
