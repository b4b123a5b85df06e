package postgres

import (
	"context"
	"database/sql"

	"brokerkyc/internal/domain"
	"brokerkyc/pkg/errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// MarginRepository records the margin collected against each trade at
// booking time and serves it back to the margin report. A trade with no
// recorded margin reads as zero collected.
type MarginRepository struct {
	db *sqlx.DB
}

func NewMarginRepository(db *sqlx.DB) *MarginRepository {
	return &MarginRepository{db: db}
}

func (r *MarginRepository) Record(ctx context.Context, tradeID string, collected decimal.Decimal) error {
	query := `
		INSERT INTO margins (trade_id, margin_collected)
		VALUES ($1, $2)
		ON CONFLICT (trade_id) DO UPDATE
		SET margin_collected = EXCLUDED.margin_collected
	`

	_, err := r.db.ExecContext(ctx, query, tradeID, collected)
	if err != nil {
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to record collected margin")
	}

	return nil
}

func (r *MarginRepository) CollectedMargin(ctx context.Context, t domain.Trade) (decimal.Decimal, error) {
	query := `
		SELECT margin_collected FROM margins
		WHERE trade_id = $1
	`

	var collected decimal.Decimal
	err := r.db.GetContext(ctx, &collected, query, t.TradeID)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to get collected margin")
	}

	return collected, nil
}
