// Package memory holds an in-memory store used in tests and when running
// without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"brokerkyc/internal/domain"
	"brokerkyc/pkg/errors"

	"github.com/shopspring/decimal"
)

// Store keeps all records in process memory. It satisfies the onboarding
// and compliance persistence interfaces.
type Store struct {
	mu       sync.RWMutex
	clients  map[string]domain.ClientProfile
	balances map[string]domain.Balance
	trades   []domain.Trade
	margins  map[string]decimal.Decimal
}

func NewStore() *Store {
	return &Store{
		clients:  make(map[string]domain.ClientProfile),
		balances: make(map[string]domain.Balance),
		margins:  make(map[string]decimal.Decimal),
	}
}

func (s *Store) OnboardBatch(ctx context.Context, profile *domain.ClientProfile, opening *domain.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[profile.ClientID]; exists {
		return errors.ErrClientAlreadyExists
	}
	s.clients[profile.ClientID] = *profile
	s.balances[opening.ClientID] = *opening
	return nil
}

func (s *Store) FindByID(ctx context.Context, clientID string) (*domain.ClientProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.clients[clientID]
	if !ok {
		return nil, errors.ErrClientNotFound
	}
	return &profile, nil
}

func (s *Store) UpdateKYCDates(ctx context.Context, clientID string, lastUpdated, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.clients[clientID]
	if !ok {
		return errors.ErrClientNotFound
	}
	profile.KYCLastUpdated = lastUpdated
	profile.KYCExpiryDate = expiry
	s.clients[clientID] = profile
	return nil
}

// FindExpiringBetween returns clients whose KYC expiry falls in [from, to).
func (s *Store) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]domain.ClientProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var profiles []domain.ClientProfile
	for _, p := range s.clients {
		if !p.KYCExpiryDate.Before(from) && p.KYCExpiryDate.Before(to) {
			profiles = append(profiles, p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].KYCExpiryDate.Equal(profiles[j].KYCExpiryDate) {
			return profiles[i].KYCExpiryDate.Before(profiles[j].KYCExpiryDate)
		}
		return profiles[i].ClientID < profiles[j].ClientID
	})
	return profiles, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances := make([]domain.Balance, 0, len(s.balances))
	for _, b := range s.balances {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].ClientID < balances[j].ClientID })
	return balances, nil
}

func (s *Store) Upsert(ctx context.Context, b *domain.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[b.ClientID] = *b
	return nil
}

func (s *Store) InsertBatch(ctx context.Context, trades []domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, trades...)
	return nil
}

func (s *Store) FindByDate(ctx context.Context, day time.Time) ([]domain.Trade, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var trades []domain.Trade
	for _, t := range s.trades {
		if !t.TradeDate.Before(start) && t.TradeDate.Before(end) {
			trades = append(trades, t)
		}
	}
	return trades, nil
}

func (s *Store) LastTradeTime(ctx context.Context, clientID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	found := false
	for _, t := range s.trades {
		if t.ClientID == clientID && t.TradeDate.After(last) {
			last = t.TradeDate
			found = true
		}
	}
	if !found {
		return time.Time{}, errors.ErrTradeNotFound
	}
	return last, nil
}

func (s *Store) Record(ctx context.Context, tradeID string, collected decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.margins[tradeID] = collected
	return nil
}

func (s *Store) CollectedMargin(ctx context.Context, t domain.Trade) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collected, ok := s.margins[t.TradeID]
	if !ok {
		return decimal.Zero, nil
	}
	return collected, nil
}
