package stores

import "errors"

// Every failure aborts the enclosing transaction with zero state change and
// surfaces one of these to the caller. Match with errors.Is.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrZeroBalance         = errors.New("zero balance")
	ErrNotExpired          = errors.New("not expired")
	ErrExpired             = errors.New("expired")
	ErrInactive            = errors.New("inactive")
	ErrWrongPassword       = errors.New("wrong password")
	ErrReceiverMismatch    = errors.New("receiver mismatch")
	ErrDepositNotFound     = errors.New("deposit not found")
	ErrAddressedNotFound   = errors.New("addressed deposit not found")
)
