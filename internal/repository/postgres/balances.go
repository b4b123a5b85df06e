package postgres

import (
	"context"
	"database/sql"

	"brokerkyc/internal/domain"
	"brokerkyc/pkg/errors"

	"github.com/jmoiron/sqlx"
)

// BalanceRepository implements client cash balance persistence. One row per
// client.
type BalanceRepository struct {
	db *sqlx.DB
}

func NewBalanceRepository(db *sqlx.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) List(ctx context.Context) ([]domain.Balance, error) {
	query := `
		SELECT * FROM balances
		ORDER BY client_id
	`

	var balances []domain.Balance
	err := r.db.SelectContext(ctx, &balances, query)
	if err != nil {
		return nil, errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to list balances")
	}

	return balances, nil
}

func (r *BalanceRepository) FindByClient(ctx context.Context, clientID string) (*domain.Balance, error) {
	query := `
		SELECT * FROM balances
		WHERE client_id = $1
	`

	var b domain.Balance
	err := r.db.GetContext(ctx, &b, query, clientID)
	if err == sql.ErrNoRows {
		return nil, errors.ErrBalanceNotFound
	}
	if err != nil {
		return nil, errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to get balance")
	}

	return &b, nil
}

func (r *BalanceRepository) Upsert(ctx context.Context, b *domain.Balance) error {
	query := `
		INSERT INTO balances (client_id, balance, last_updated)
		VALUES (:client_id, :balance, :last_updated)
		ON CONFLICT (client_id) DO UPDATE
		SET balance = EXCLUDED.balance, last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.NamedExecContext(ctx, query, b)
	if err != nil {
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to upsert balance")
	}

	return nil
}
