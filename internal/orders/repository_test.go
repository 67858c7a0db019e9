package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=racereg dbname=racereg_test",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

// Every lifecycle transition reads the order row through lockOrderQuery.
// Without an explicit row lock two concurrent settlement reports both pass
// the already-paid check and allocate two bibs.
func TestLifecycleReadLocksOrderRow(t *testing.T) {
	db := newDryRunDB(t)

	var order Order
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return lockOrderQuery(tx, uuid.New()).Model(&Order{}).Find(&order)
	})

	assert.Contains(t, sql, "FOR UPDATE")
}
