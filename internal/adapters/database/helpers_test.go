package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/postgres"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewClientFromDB(mockDB), mock
}

func providerRow(id, providerType string, adminRevenue, feeBalance float64, paidStatus string, serviceStop bool, version int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "provider_type", "name", "phone", "city",
		"admin_revenue", "fee_balance", "paid_status", "service_stop",
		"last_event_at", "version", "created_at", "updated_at",
	}).AddRow(id, providerType, "Provider "+id, "+911234567890", "Pune",
		adminRevenue, feeBalance, paidStatus, serviceStop,
		nil, version, now, now)
}

func bookingColumnNames() []string {
	return []string{
		"id", "patient_id", "provider_id", "provider_type", "service_id", "status",
		"booking_date", "next_visit_date", "commission", "version", "created_at", "updated_at",
	}
}
