package service

import "errors"

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInvalidAmount rejects zero, negative, or non-numeric amounts
	// before anything is written.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrExceedsBalance rejects a partial payment larger than the
	// outstanding balance.
	ErrExceedsBalance = errors.New("payment exceeds remaining balance")

	// ErrAlreadySettled and ErrAlreadyRejected enforce the terminal
	// payment states: once a booking reconciles to Paid or Rejected,
	// its payment history stops accepting transitions.
	ErrAlreadySettled  = errors.New("booking is already fully paid")
	ErrAlreadyRejected = errors.New("payment is already rejected")

	// ErrInvalidStatus rejects booking status transitions outside
	// confirmed/rejected.
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrPartialUpdate reports that a multi-document update applied
	// some writes before failing. Nothing is rolled back; the message
	// names what did and did not take effect.
	ErrPartialUpdate = errors.New("multi-document update partially applied")
)
