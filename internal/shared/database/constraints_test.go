package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// MigrateConstraints runs on every boot, so each statement must be written
// to no-op when its object already exists.
func TestConstraintStatementsAreRerunSafe(t *testing.T) {
	for _, stmt := range constraintStatements {
		assert.Contains(t, stmt, "IF NOT EXISTS", "statement must guard against re-application: %s", stmt)
	}
}

// Postgres accepts IF NOT EXISTS on ADD COLUMN but not on ADD CONSTRAINT;
// the constraint guard has to go through pg_constraint instead.
func TestCheckConstraintGuardedThroughCatalog(t *testing.T) {
	var checkStmt string
	for _, stmt := range constraintStatements {
		if strings.Contains(stmt, "check_sold_within_stock") {
			checkStmt = stmt
		}
		assert.NotContains(t, stmt, "ADD CONSTRAINT IF NOT EXISTS")
	}

	if assert.NotEmpty(t, checkStmt, "sold-within-stock constraint missing") {
		assert.Contains(t, checkStmt, "pg_constraint")
		assert.Contains(t, checkStmt, "sold >= 0 AND sold <= stock")
	}
}
