package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrReceiptAlreadyClaimed indicates a concurrent import already posted
	// the same receipt leg. The whole batch rolls back.
	ErrReceiptAlreadyClaimed = errors.New("accounting: receipt leg already claimed")
)
