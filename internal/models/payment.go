package models

import "time"

// Payment is one row of a booking's payment history, stored in the
// "payment" collection. Many rows may share a bookingId.
type Payment struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"bookingId"`
	Label       string    `json:"label"`
	PaidAmount  float64   `json:"paidAmount"`
	TotalAmount float64   `json:"totalAmount"`
	PaymentType string    `json:"paymentType"`
	PaymentDate time.Time `json:"paymentDate"`
	Status      string    `json:"status"`
	ReceiptPath string    `json:"receiptPath,omitempty"`
}

// PaymentRollup aggregates a booking's payment rows.
//
// PaidAmount sums paidAmount across rows. StatedTotal is the last-seen
// totalAmount and is informational only: the authoritative total is
// always derived from the booking's resolved room prices, never from
// payment rows.
type PaymentRollup struct {
	BookingID    string
	PaidAmount   float64
	StatedTotal  float64
	PaymentDates []time.Time
	ReceiptPaths []string
	Statuses     []string
}

// LatestPaymentDate returns the most recent date, zero when none exist.
func (r *PaymentRollup) LatestPaymentDate() time.Time {
	var latest time.Time
	for _, d := range r.PaymentDates {
		if d.After(latest) {
			latest = d
		}
	}
	return latest
}

// LatestReceipt returns the receipt path of the last row that had one.
func (r *PaymentRollup) LatestReceipt() string {
	if len(r.ReceiptPaths) == 0 {
		return ""
	}
	return r.ReceiptPaths[len(r.ReceiptPaths)-1]
}
