package postgres

import (
	"context"
	"database/sql"
	"time"

	"brokerkyc/internal/domain"
	"brokerkyc/pkg/errors"

	"github.com/jmoiron/sqlx"
)

// ClientRepository implements client profile persistence.
type ClientRepository struct {
	db *sqlx.DB
}

func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) FindByID(ctx context.Context, clientID string) (*domain.ClientProfile, error) {
	query := `
		SELECT * FROM clients
		WHERE client_id = $1
	`

	var profile domain.ClientProfile
	err := r.db.GetContext(ctx, &profile, query, clientID)
	if err == sql.ErrNoRows {
		return nil, errors.ErrClientNotFound
	}
	if err != nil {
		return nil, errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to get client")
	}

	return &profile, nil
}

func (r *ClientRepository) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]domain.ClientProfile, error) {
	query := `
		SELECT * FROM clients
		WHERE kyc_expiry_date >= $1 AND kyc_expiry_date < $2
		ORDER BY kyc_expiry_date, client_id
	`

	var profiles []domain.ClientProfile
	err := r.db.SelectContext(ctx, &profiles, query, from, to)
	if err != nil {
		return nil, errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to list expiring clients")
	}

	return profiles, nil
}

func (r *ClientRepository) UpdateKYCDates(ctx context.Context, clientID string, lastUpdated, expiry time.Time) error {
	query := `
		UPDATE clients
		SET kyc_last_updated = $1, kyc_expiry_date = $2
		WHERE client_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, lastUpdated, expiry, clientID)
	if err != nil {
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to update kyc dates")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to check kyc update result")
	}
	if rows == 0 {
		return errors.ErrClientNotFound
	}

	return nil
}
