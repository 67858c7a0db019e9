package main

import (
	"fmt"
	"log"
	"time"

	"racereg/internal/orders"
	"racereg/internal/shared/config"
	"racereg/internal/shared/database"
	"racereg/internal/tickets"
	"racereg/internal/users"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Racereg Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"orders",
		"ticket_categories",
		"users",
	}

	pg := s.db.GetPostgreSQL()
	for _, table := range tables {
		if err := pg.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
		fmt.Printf("  ✓ Truncated %s\n", table)
	}

	return nil
}

// SeedAll seeds committee accounts, ticket categories and sample orders
func (s *Seeder) SeedAll() error {
	if err := s.seedCommitteeAccounts(); err != nil {
		return fmt.Errorf("failed to seed committee accounts: %w", err)
	}

	categories, err := s.seedTicketCategories()
	if err != nil {
		return fmt.Errorf("failed to seed ticket categories: %w", err)
	}

	if err := s.seedOrders(categories); err != nil {
		return fmt.Errorf("failed to seed orders: %w", err)
	}

	return nil
}

func (s *Seeder) seedCommitteeAccounts() error {
	accounts := []struct {
		firstName string
		lastName  string
		email     string
		password  string
		role      users.Role
	}{
		{"Race", "Admin", "admin@racereg.local", "admin123", users.RoleAdmin},
		{"Pack", "Desk", "desk@racereg.local", "staff123", users.RoleStaff},
	}

	pg := s.db.GetPostgreSQL()
	for _, acc := range accounts {
		hashed, err := bcrypt.GenerateFromPassword([]byte(acc.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user := users.User{
			FirstName: acc.firstName,
			LastName:  acc.lastName,
			Email:     acc.email,
			Password:  string(hashed),
			Role:      acc.role,
		}
		if err := pg.Create(&user).Error; err != nil {
			return err
		}
		fmt.Printf("  ✓ Created account: %s (%s)\n", acc.email, acc.role)
	}

	return nil
}

func (s *Seeder) seedTicketCategories() ([]tickets.TicketCategory, error) {
	now := time.Now()
	saleStart := now.Add(-7 * 24 * time.Hour)
	saleEnd := now.Add(30 * 24 * time.Hour)
	closedEnd := now.Add(-24 * time.Hour)

	categories := []tickets.TicketCategory{
		{
			Name:        "5K Fun Run",
			Description: "Casual 5 kilometer run, open to all ages. Includes race pack and finisher medal.",
			Price:       150000,
			Stock:       500,
			Active:      true,
			SaleStartAt: &saleStart,
			SaleEndAt:   &saleEnd,
		},
		{
			Name:        "10K",
			Description: "Competitive 10 kilometer race with chip timing.",
			Price:       250000,
			Stock:       300,
			Active:      true,
			SaleStartAt: &saleStart,
			SaleEndAt:   &saleEnd,
		},
		{
			Name:        "Half Marathon",
			Description: "21.1 kilometer race. Medical certificate required at race pack collection.",
			Price:       400000,
			Stock:       200,
			Active:      true,
			SaleStartAt: &saleStart,
			SaleEndAt:   &saleEnd,
		},
		{
			Name:        "Marathon",
			Description: "Full 42.2 kilometer marathon. Limited slots.",
			Price:       600000,
			Stock:       100,
			Active:      true,
			SaleStartAt: &saleStart,
			SaleEndAt:   &saleEnd,
		},
		{
			Name:        "Early Bird 10K",
			Description: "Discounted 10K slots, sale window already closed.",
			Price:       175000,
			Stock:       50,
			Active:      true,
			SaleStartAt: &saleStart,
			SaleEndAt:   &closedEnd,
		},
	}

	pg := s.db.GetPostgreSQL()
	for i := range categories {
		if err := pg.Create(&categories[i]).Error; err != nil {
			return nil, err
		}
		fmt.Printf("  ✓ Created category: %s (stock %d)\n", categories[i].Name, categories[i].Stock)
	}

	return categories, nil
}

func (s *Seeder) seedOrders(categories []tickets.TicketCategory) error {
	if len(categories) < 2 {
		return fmt.Errorf("expected at least two categories to seed orders against")
	}

	now := time.Now()
	paidAt := now.Add(-2 * time.Hour)
	cancelledAt := now.Add(-1 * time.Hour)

	bibOne := orders.FormatBibNumber(1)
	bibTwo := orders.FormatBibNumber(2)

	samples := []orders.Order{
		{
			OrderNumber:      "RUN-20260810-ABCDEF",
			BibNumber:        &bibOne,
			TicketCategoryID: categories[0].ID,
			Quantity:         1,
			UnitPrice:        categories[0].Price,
			TotalPrice:       categories[0].Price,
			Status:           orders.StatusPaid,
			PaymentMethod:    "bank_transfer",
			PaymentReference: "seed-txn-0001",
			PaidAt:           &paidAt,
			FormData: datatypes.JSONMap{
				"name":  "Andi Wijaya",
				"email": "andi@example.com",
				"phone": "+628111111111",
			},
		},
		{
			OrderNumber:      "RUN-20260810-GHJKLM",
			BibNumber:        &bibTwo,
			TicketCategoryID: categories[1].ID,
			Quantity:         2,
			UnitPrice:        categories[1].Price,
			TotalPrice:       categories[1].Price * 2,
			Status:           orders.StatusPaid,
			PaymentMethod:    "qris",
			PaymentReference: "seed-txn-0002",
			PaidAt:           &paidAt,
			PackCollected:    true,
			PackCollectedAt:  &now,
			PackCollectedBy:  "Committee",
			FormData: datatypes.JSONMap{
				"name":  "Siti Rahma",
				"email": "siti@example.com",
			},
		},
		{
			OrderNumber:      "RUN-20260811-NPQRST",
			TicketCategoryID: categories[0].ID,
			Quantity:         1,
			UnitPrice:        categories[0].Price,
			TotalPrice:       categories[0].Price,
			Status:           orders.StatusAwaitingPayment,
			FormData: datatypes.JSONMap{
				"name":  "Budi Santoso",
				"email": "budi@example.com",
			},
		},
		{
			OrderNumber:      "RUN-20260811-UVWXYZ",
			TicketCategoryID: categories[1].ID,
			Quantity:         1,
			UnitPrice:        categories[1].Price,
			TotalPrice:       categories[1].Price,
			Status:           orders.StatusCancelled,
			CancelledAt:      &cancelledAt,
			FormData: datatypes.JSONMap{
				"full_name": "Dewi Lestari",
			},
		},
	}

	pg := s.db.GetPostgreSQL()
	for i := range samples {
		if err := pg.Create(&samples[i]).Error; err != nil {
			return err
		}
		fmt.Printf("  ✓ Created order: %s (%s)\n", samples[i].OrderNumber, samples[i].Status)
	}

	// Keep sold counters consistent with the paid and pending orders above.
	// Category 0: one paid + one awaiting = 2 reserved. Category 1: two paid.
	if err := pg.Model(&tickets.TicketCategory{}).
		Where("id = ?", categories[0].ID).
		Update("sold", 2).Error; err != nil {
		return err
	}
	if err := pg.Model(&tickets.TicketCategory{}).
		Where("id = ?", categories[1].ID).
		Update("sold", 2).Error; err != nil {
		return err
	}

	return nil
}
