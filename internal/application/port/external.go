package port

import (
	"context"
	"time"

	"github.com/consultia/expense-portal/internal/domain/entity"
)

// SearchParams are the itinerary parameters handed to the travel search
// provider. The provider protocol itself is opaque.
type SearchParams struct {
	SearchType  string    `json:"search_type"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Return      time.Time `json:"return,omitempty"`
}

// QuoteResult is one priced option as returned by the travel search provider,
// before it is persisted as an entity.Quote.
type QuoteResult struct {
	Price             float64
	Currency          string
	Provider          string
	DepartureTime     *time.Time
	ArrivalTime       *time.Time
	Refundable        bool
	BaggageIncluded   bool
	InsuranceIncluded bool
	BookingRef        string
}

// QuoteSearcher calls an external flight/hotel/car pricing API. Zero results
// is a valid outcome, not an error.
type QuoteSearcher interface {
	Search(ctx context.Context, assignment *entity.Assignment, params SearchParams) ([]QuoteResult, error)
}

// Authorizer resolves caller identity into roles and consultant ownership.
// Auth itself is an external collaborator; the core trusts these predicates.
type Authorizer interface {
	IsAdmin(ctx context.Context, callerID int64) (bool, error)
	ConsultantIDFor(ctx context.Context, callerID int64) (int64, error)
}
