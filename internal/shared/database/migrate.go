package database

import (
	"racereg/internal/orders"
	"racereg/internal/tickets"
	"racereg/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&tickets.TicketCategory{},
		&orders.Order{},
	)
}
