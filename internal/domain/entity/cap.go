package entity

import "time"

// PriceCap is the reimbursement ceiling for an assignment, derived from the
// cheapest quote of one search execution. Caps are append-only: a new search
// appends a new row and the latest set_at governs.
type PriceCap struct {
	ID               int64     `json:"id"`
	AssignmentID     int64     `json:"assignment_id"`
	SearchID         int64     `json:"search_id"`
	MaxApprovedPrice float64   `json:"max_approved_price"`
	Currency         string    `json:"currency"`
	SetAt            time.Time `json:"set_at"`
}
