package postgres

import (
	"context"

	"brokerkyc/internal/domain"
	"brokerkyc/pkg/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Store is the onboarding persistence surface: client profile queries plus
// the atomic profile-and-opening-balance write.
type Store struct {
	*ClientRepository
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{ClientRepository: NewClientRepository(db), db: db}
}

// OnboardBatch inserts the client profile and its opening balance in one
// transaction. Either both rows land or neither does.
func (s *Store) OnboardBatch(ctx context.Context, profile *domain.ClientProfile, opening *domain.Balance) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to begin onboarding transaction")
	}
	defer tx.Rollback()

	clientQuery := `
		INSERT INTO clients (
			client_id, full_name, pan_number, pan_number_masked,
			dob, address, kyc_last_updated, kyc_expiry_date, risk_category
		) VALUES (
			:client_id, :full_name, :pan_number, :pan_number_masked,
			:dob, :address, :kyc_last_updated, :kyc_expiry_date, :risk_category
		)
	`

	if _, err := tx.NamedExecContext(ctx, clientQuery, profile); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return errors.ErrClientAlreadyExists
		}
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to insert client")
	}

	balanceQuery := `
		INSERT INTO balances (client_id, balance, last_updated)
		VALUES (:client_id, :balance, :last_updated)
	`

	if _, err := tx.NamedExecContext(ctx, balanceQuery, opening); err != nil {
		return errors.WrapWith(err, errors.ErrPersistenceUnavailable, "failed to insert opening balance")
	}

	return tx.Commit()
}
