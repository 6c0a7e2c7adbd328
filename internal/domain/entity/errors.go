package entity

import "errors"

var (
	// ErrInvalidAmount is returned when a submitted or approved amount is not positive
	// or exceeds what the claim allows
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNoAttachments is returned when a submission carries no usable receipt
	ErrNoAttachments = errors.New("at least one attachment is required")

	// ErrFileTooLarge is returned per file when an upload exceeds MaxAttachmentSize
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrMissingReason is returned when a rejection carries no reason
	ErrMissingReason = errors.New("rejection reason is required")

	// ErrNoQuotes is returned when a cap is derived from a search that stored no quotes
	ErrNoQuotes = errors.New("search produced no quotes")

	// ErrStateConflict is returned when a review transition races a concurrent
	// reviewer or targets a terminal claim
	ErrStateConflict = errors.New("claim is not in a reviewable state")

	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("entity not found")

	// ErrForbidden is returned when the caller's role does not permit the operation
	ErrForbidden = errors.New("operation not permitted for caller")
)
