package entity

import "time"

// QuoteSearch represents one execution of a travel price search for an
// assignment. Each execution is a fresh snapshot; quotes never move between
// searches.
type QuoteSearch struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	SearchType   string    `json:"search_type"`
	Params       string    `json:"params"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// Search type constants
const (
	SearchTypeFlight = "flight"
	SearchTypeHotel  = "hotel"
	SearchTypeCar    = "car"
)

// Quote represents one priced travel option returned by a search.
// Immutable once stored.
type Quote struct {
	ID                int64      `json:"id"`
	SearchID          int64      `json:"search_id"`
	Price             float64    `json:"price"`
	Currency          string     `json:"currency"`
	Provider          string     `json:"provider"`
	DepartureTime     *time.Time `json:"departure_time,omitempty"`
	ArrivalTime       *time.Time `json:"arrival_time,omitempty"`
	Refundable        bool       `json:"refundable"`
	BaggageIncluded   bool       `json:"baggage_included"`
	InsuranceIncluded bool       `json:"insurance_included"`
	BookingRef        string     `json:"booking_ref"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DefaultQuoteLimit is the number of quotes surfaced to callers when no
// explicit limit is given.
const DefaultQuoteLimit = 3
