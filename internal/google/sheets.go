// Package google pushes the booking snapshot to a Google Sheet via a
// service account.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"innkeeper/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const bookingsRange = "Bookings"

type SheetsService struct {
	service         *sheets.Service
	bookingsSheetID string
}

func NewSheetsService(credentialsFile, bookingsSheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &SheetsService{
		service:         srv,
		bookingsSheetID: bookingsSheetID,
	}, nil
}

// TestConnection reads the header cell to verify access.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, bookingsRange+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail reads the client email from the credentials
// file, for sharing the spreadsheet with the right account.
func GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// ReplaceBookingsSheet overwrites the sheet with the given snapshot:
// header row plus one row per booking. The whole range below the data
// is cleared first so removed bookings disappear.
func (s *SheetsService) ReplaceBookingsSheet(ctx context.Context, rows []models.BookingSummary) error {
	clearRange := bookingsRange + "!A1:L"
	_, err := s.service.Spreadsheets.Values.Clear(s.bookingsSheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear bookings sheet: %v", err)
	}

	valueRange := &sheets.ValueRange{Values: BuildBookingValues(rows)}
	_, err = s.service.Spreadsheets.Values.Update(s.bookingsSheetID, bookingsRange+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update bookings sheet: %v", err)
	}
	return nil
}

// BuildBookingValues renders the snapshot into sheet values, header
// first.
func BuildBookingValues(rows []models.BookingSummary) [][]interface{} {
	values := [][]interface{}{{
		"Booking ID", "Guest", "Email", "Phone", "Rooms", "Category",
		"Check-in", "Check-out", "Booking Status", "Payment Status",
		"Total", "Paid",
	}}

	for _, row := range rows {
		values = append(values, []interface{}{
			row.ID,
			row.UserName,
			row.Email,
			row.Number,
			row.RoomNumber,
			row.Category,
			row.CheckIn.Format("2006-01-02"),
			row.CheckOut.Format("2006-01-02"),
			row.BookingStatus,
			row.PaymentStatus,
			row.TotalAmount,
			row.PaidAmount,
		})
	}
	return values
}
