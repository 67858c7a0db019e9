package database

import (
	"gorm.io/gorm"
)

// constraintStatements are applied in order on every startup, so each one
// must be guarded to no-op when its object already exists. Postgres has no
// ADD CONSTRAINT IF NOT EXISTS form; the check constraint is guarded through
// pg_constraint instead.
var constraintStatements = []string{
	// Sold can never exceed stock, regardless of code path.
	`
	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint
			WHERE conname = 'check_sold_within_stock'
			  AND conrelid = 'ticket_categories'::regclass
		) THEN
			ALTER TABLE ticket_categories
			ADD CONSTRAINT check_sold_within_stock
			CHECK (sold >= 0 AND sold <= stock);
		END IF;
	END $$;
	`,

	// Bib numbers are unique among the orders that still carry one.
	`
	CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_bib_number_unique
	ON orders (bib_number) WHERE bib_number IS NOT NULL;
	`,

	// Reconciliation resolves orders by number on every gateway report.
	`
	CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number
	ON orders (order_number);
	`,
}

// MigrateConstraints adds database-level backstops for the inventory and
// bib invariants. Application code holds the row locks; these constraints
// catch anything that slips past them.
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
