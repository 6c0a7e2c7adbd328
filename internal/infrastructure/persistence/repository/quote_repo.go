package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"go.uber.org/zap"
)

// QuoteRepository implements port.QuoteRepository. Quotes are immutable once
// stored; ranking is always computed at read time (ORDER BY price), never
// trusted from insertion order.
type QuoteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB, logger *zap.Logger) port.QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch stores the full quote set of one search
func (r *QuoteRepository) CreateBatch(ctx context.Context, quotes []*entity.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	query := `
		INSERT INTO quotes (
			search_id, price, currency, provider, departure_time, arrival_time,
			refundable, baggage_included, insurance_included, booking_ref, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := getExecutor(ctx, r.db)
	for _, q := range quotes {
		result, err := exec.ExecContext(ctx, query,
			q.SearchID,
			q.Price,
			q.Currency,
			q.Provider,
			q.DepartureTime,
			q.ArrivalTime,
			q.Refundable,
			q.BaggageIncluded,
			q.InsuranceIncluded,
			q.BookingRef,
			q.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create quote", zap.Int64("search_id", q.SearchID), zap.Error(err))
			return fmt.Errorf("failed to create quote: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		q.ID = id
	}

	return nil
}

// GetBySearchID returns the quotes of a search ordered by price ascending
func (r *QuoteRepository) GetBySearchID(ctx context.Context, searchID int64, limit int) ([]*entity.Quote, error) {
	query := `
		SELECT id, search_id, price, currency, provider, departure_time, arrival_time,
			refundable, baggage_included, insurance_included, booking_ref, created_at
		FROM quotes
		WHERE search_id = ?
		ORDER BY price ASC, id ASC
	`
	args := []interface{}{searchID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list quotes", zap.Int64("search_id", searchID), zap.Error(err))
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	quotes := []*entity.Quote{}
	for rows.Next() {
		var q entity.Quote
		var departureTime, arrivalTime sql.NullTime

		err := rows.Scan(
			&q.ID,
			&q.SearchID,
			&q.Price,
			&q.Currency,
			&q.Provider,
			&departureTime,
			&arrivalTime,
			&q.Refundable,
			&q.BaggageIncluded,
			&q.InsuranceIncluded,
			&q.BookingRef,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}

		if departureTime.Valid {
			q.DepartureTime = &departureTime.Time
		}
		if arrivalTime.Valid {
			q.ArrivalTime = &arrivalTime.Time
		}

		quotes = append(quotes, &q)
	}

	return quotes, rows.Err()
}

// MinPriceBySearchID returns the lowest quote price of a search
func (r *QuoteRepository) MinPriceBySearchID(ctx context.Context, searchID int64) (float64, string, bool, error) {
	query := `
		SELECT price, currency
		FROM quotes
		WHERE search_id = ?
		ORDER BY price ASC, id ASC
		LIMIT 1
	`

	var price float64
	var currency string
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, searchID).Scan(&price, &currency)

	if err == sql.ErrNoRows {
		return 0, "", false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get min quote price", zap.Int64("search_id", searchID), zap.Error(err))
		return 0, "", false, fmt.Errorf("failed to get min quote price: %w", err)
	}

	return price, currency, true, nil
}

// Verify interface compliance
var _ port.QuoteRepository = (*QuoteRepository)(nil)
