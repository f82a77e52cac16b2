package persistence

import (
	"testing"

	"github.com/docflow/backend/internal/domain/document"
	"github.com/docflow/backend/internal/domain/quotation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&quotation.Quotation{},
		&quotation.Line{},
		&document.Delivery{},
		&document.DeliveryLine{},
		&document.Invoice{},
		&document.InvoiceLine{},
		&document.Payment{},
	))
	return db
}

func qty(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
