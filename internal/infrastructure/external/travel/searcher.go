// Package travel adapts an external flight/hotel/car pricing API to the
// port.QuoteSearcher contract. The provider protocol is opaque to the core:
// this client posts itinerary parameters and maps whatever priced options
// come back.
package travel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
)

// Config holds travel API configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Searcher implements port.QuoteSearcher against an HTTP travel API
type Searcher struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewSearcher creates a new travel API searcher
func NewSearcher(config Config, logger *zap.Logger) *Searcher {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Searcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

type searchRequest struct {
	SearchType  string `json:"search_type"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure_date"`
	Return      string `json:"return_date,omitempty"`
}

type searchResponse struct {
	Options []struct {
		Price             float64    `json:"price"`
		Currency          string     `json:"currency"`
		Provider          string     `json:"provider"`
		DepartureTime     *time.Time `json:"departure_time"`
		ArrivalTime       *time.Time `json:"arrival_time"`
		Refundable        bool       `json:"refundable"`
		BaggageIncluded   bool       `json:"baggage_included"`
		InsuranceIncluded bool       `json:"insurance_included"`
		BookingRef        string     `json:"booking_ref"`
	} `json:"options"`
}

// Search queries the travel API for priced options. An empty option list is
// a valid "no options found" outcome.
func (s *Searcher) Search(ctx context.Context, assignment *entity.Assignment, params port.SearchParams) ([]port.QuoteResult, error) {
	req := searchRequest{
		SearchType:  params.SearchType,
		Origin:      params.Origin,
		Destination: params.Destination,
		Departure:   params.Departure.Format("2006-01-02"),
	}
	if req.Origin == "" {
		req.Origin = assignment.Origin
	}
	if req.Destination == "" {
		req.Destination = assignment.Destination
	}
	if !params.Return.IsZero() {
		req.Return = params.Return.Format("2006-01-02")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.Error("Travel API request failed", zap.Error(err))
		return nil, fmt.Errorf("travel API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Travel API returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("search_type", params.SearchType))
		return nil, fmt.Errorf("travel API status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode travel API response: %w", err)
	}

	results := make([]port.QuoteResult, 0, len(parsed.Options))
	for _, o := range parsed.Options {
		results = append(results, port.QuoteResult{
			Price:             o.Price,
			Currency:          o.Currency,
			Provider:          o.Provider,
			DepartureTime:     o.DepartureTime,
			ArrivalTime:       o.ArrivalTime,
			Refundable:        o.Refundable,
			BaggageIncluded:   o.BaggageIncluded,
			InsuranceIncluded: o.InsuranceIncluded,
			BookingRef:        o.BookingRef,
		})
	}

	s.logger.Info("Travel API search completed",
		zap.String("search_type", params.SearchType),
		zap.Int("options", len(results)))

	return results, nil
}

// Verify interface compliance
var _ port.QuoteSearcher = (*Searcher)(nil)
