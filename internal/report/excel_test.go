package report

import (
	"context"
	"testing"
	"time"

	"innkeeper/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportWritesSnapshot(t *testing.T) {
	logger := zerolog.Nop()
	exporter := NewExporter(t.TempDir(), &logger)

	rows := []models.BookingSummary{
		{
			ID:            "bk-1",
			UserName:      "mira",
			Email:         "mira@example.com",
			Number:        "555-0101",
			RoomNumber:    "101, 102",
			Category:      "Deluxe, Deluxe",
			CheckIn:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:      time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
			BookingStatus: "Confirmed",
			PaymentStatus: models.PaymentStatusPending,
			TotalAmount:   2500,
			PaidAmount:    1000,
		},
		{
			ID:            "bk-2",
			UserName:      "Guest",
			PaymentStatus: models.PaymentStatusPaid,
		},
	}

	path, err := exporter.Export(context.Background(), rows)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3, "header plus two data rows")

	assert.Equal(t, "Booking ID", got[0][0])
	assert.Equal(t, "bk-1", got[1][0])
	assert.Equal(t, "mira", got[1][1])
	assert.Equal(t, "101, 102", got[1][4])
	assert.Equal(t, "01.07.2025", got[1][6])
	assert.Equal(t, models.PaymentStatusPending, got[1][9])
	assert.Equal(t, "bk-2", got[2][0])
}

func TestExportEmptySnapshot(t *testing.T) {
	logger := zerolog.Nop()
	exporter := NewExporter(t.TempDir(), &logger)

	path, err := exporter.Export(context.Background(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, got, 1, "header only")
}
