package postgres

import (
	"context"
	"database/sql"
	"time"

	"brokerkyc/internal/domain"
	"brokerkyc/pkg/errors"

	"github.com/jmoiron/sqlx"
)

// TradeRepository implements trade history persistence. Trades are
// append-only.
type TradeRepository struct {
	db *sqlx.DB
}

func NewTradeRepository(db *sqlx.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

func (r *TradeRepository) InsertBatch(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	query := `
		INSERT INTO trades (
			trade_id, client_id, stock_symbol, trade_type,
			quantity, price_per_share, trade_date
		) VALUES (
			:trade_id, :client_id, :stock_symbol, :trade_type,
			:quantity, :price_per_share, :trade_date
		)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to begin trade insert")
	}
	defer tx.Rollback()

	for i := range trades {
		if _, err := tx.NamedExecContext(ctx, query, &trades[i]); err != nil {
			return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to insert trade")
		}
	}

	return tx.Commit()
}

// FindByDate returns all trades whose trade_date falls on the given
// calendar day, in booking order.
func (r *TradeRepository) FindByDate(ctx context.Context, day time.Time) ([]domain.Trade, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	query := `
		SELECT * FROM trades
		WHERE trade_date >= $1 AND trade_date < $2
		ORDER BY trade_date, trade_id
	`

	var trades []domain.Trade
	err := r.db.SelectContext(ctx, &trades, query, start, end)
	if err != nil {
		return nil, errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to list trades by date")
	}

	return trades, nil
}

func (r *TradeRepository) LastTradeTime(ctx context.Context, clientID string) (time.Time, error) {
	query := `
		SELECT trade_date FROM trades
		WHERE client_id = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var last time.Time
	err := r.db.GetContext(ctx, &last, query, clientID)
	if err == sql.ErrNoRows {
		return time.Time{}, errors.ErrTradeNotFound
	}
	if err != nil {
		return time.Time{}, errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to get last trade time")
	}

	return last, nil
}
