// Package report renders the aggregated booking snapshot into files.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"innkeeper/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"Booking ID", "Guest", "Email", "Phone", "Rooms", "Category",
	"Check-in", "Check-out", "Booking Status", "Payment Status",
	"Total", "Paid",
}

// Exporter writes xlsx snapshots of the bookings list.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// Export writes the rows into a timestamped xlsx file and returns its
// path.
func (e *Exporter) Export(ctx context.Context, rows []models.BookingSummary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, row := range rows {
		r := i + 2
		for col, value := range rowValues(row) {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(sheetName, cell, value)
		}

		if styleID, err := e.paymentStyle(f, row.PaymentStatus); err == nil {
			statusCell, _ := excelize.CoordinatesToCellName(10, r)
			_ = f.SetCellStyle(sheetName, statusCell, statusCell, styleID)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 28)
	_ = f.SetColWidth(sheetName, "B", "F", 20)
	_ = f.SetColWidth(sheetName, "G", "L", 14)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	if e.logger != nil {
		e.logger.Info().Str("file_path", filePath).Int("rows", len(rows)).Msg("bookings export created")
	}
	return filePath, nil
}

func (e *Exporter) paymentStyle(f *excelize.File, status string) (int, error) {
	color := "#FFFFFF"
	switch status {
	case models.PaymentStatusPaid:
		color = "#C6EFCE"
	case models.PaymentStatusPending:
		color = "#FFEB9C"
	case models.PaymentStatusRejected:
		color = "#FFC7CE"
	}
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func rowValues(row models.BookingSummary) []interface{} {
	return []interface{}{
		row.ID,
		row.UserName,
		row.Email,
		row.Number,
		row.RoomNumber,
		row.Category,
		row.CheckIn.Format("02.01.2006"),
		row.CheckOut.Format("02.01.2006"),
		row.BookingStatus,
		row.PaymentStatus,
		row.TotalAmount,
		row.PaidAmount,
	}
}
