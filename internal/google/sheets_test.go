package google

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"innkeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBookingValues(t *testing.T) {
	rows := []models.BookingSummary{
		{
			ID:            "bk-1",
			UserName:      "mira",
			RoomNumber:    "101",
			Category:      "Deluxe",
			CheckIn:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:      time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
			BookingStatus: "Confirmed",
			PaymentStatus: models.PaymentStatusPaid,
			TotalAmount:   1000,
			PaidAmount:    1000,
		},
	}

	values := BuildBookingValues(rows)
	require.Len(t, values, 2)
	assert.Equal(t, "Booking ID", values[0][0])
	assert.Equal(t, "bk-1", values[1][0])
	assert.Equal(t, "2025-07-01", values[1][6])
	assert.Equal(t, models.PaymentStatusPaid, values[1][9])
	assert.Equal(t, 1000.0, values[1][10])
}

func TestBuildBookingValuesEmpty(t *testing.T) {
	values := BuildBookingValues(nil)
	require.Len(t, values, 1, "header only")
}

func TestGetServiceAccountEmail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email":"svc@project.iam.gserviceaccount.com"}`), 0o600))

	email, err := GetServiceAccountEmail(path)
	require.NoError(t, err)
	assert.Equal(t, "svc@project.iam.gserviceaccount.com", email)

	_, err = GetServiceAccountEmail(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
