package memory

import (
	"context"
	"testing"
	"time"

	"brokerkyc/internal/domain"
	pkgerrors "brokerkyc/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardBatchAndLookup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	profile := &domain.ClientProfile{ClientID: "CL1001", FullName: "ASHA PATEL"}
	opening := &domain.Balance{ClientID: "CL1001", Amount: decimal.NewFromInt(50000)}

	require.NoError(t, store.OnboardBatch(ctx, profile, opening))

	found, err := store.FindByID(ctx, "CL1001")
	require.NoError(t, err)
	assert.Equal(t, "ASHA PATEL", found.FullName)

	balances, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Amount.Equal(decimal.NewFromInt(50000)))
}

func TestOnboardBatchDuplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	profile := &domain.ClientProfile{ClientID: "CL1001"}
	opening := &domain.Balance{ClientID: "CL1001"}
	require.NoError(t, store.OnboardBatch(ctx, profile, opening))

	err := store.OnboardBatch(ctx, profile, opening)
	assert.ErrorIs(t, err, pkgerrors.ErrClientAlreadyExists)
}

func TestFindByIDNotFound(t *testing.T) {
	store := NewStore()

	_, err := store.FindByID(context.Background(), "CL9999")
	assert.ErrorIs(t, err, pkgerrors.ErrClientNotFound)
}

func TestUpdateKYCDates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.OnboardBatch(ctx, &domain.ClientProfile{ClientID: "CL1001"}, &domain.Balance{ClientID: "CL1001"}))

	last := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	expiry := last.AddDate(0, 0, domain.KYCValidityDays)
	require.NoError(t, store.UpdateKYCDates(ctx, "CL1001", last, expiry))

	found, err := store.FindByID(ctx, "CL1001")
	require.NoError(t, err)
	assert.Equal(t, expiry, found.KYCExpiryDate)
}

func TestFindExpiringBetweenSorted(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	for _, c := range []struct {
		id     string
		expiry time.Time
	}{
		{"CL1003", base.AddDate(0, 0, 20)},
		{"CL1001", base.AddDate(0, 0, 5)},
		{"CL1002", base.AddDate(0, 0, 60)},
	} {
		require.NoError(t, store.OnboardBatch(ctx,
			&domain.ClientProfile{ClientID: c.id, KYCExpiryDate: c.expiry},
			&domain.Balance{ClientID: c.id}))
	}

	profiles, err := store.FindExpiringBetween(ctx, base, base.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "CL1001", profiles[0].ClientID)
	assert.Equal(t, "CL1003", profiles[1].ClientID)
}

func TestFindExpiringBetweenUpperBoundExclusive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.OnboardBatch(ctx,
		&domain.ClientProfile{ClientID: "CL1001", KYCExpiryDate: base.AddDate(0, 0, 30).Add(14 * time.Hour)},
		&domain.Balance{ClientID: "CL1001"}))
	require.NoError(t, store.OnboardBatch(ctx,
		&domain.ClientProfile{ClientID: "CL1002", KYCExpiryDate: base.AddDate(0, 0, 31)},
		&domain.Balance{ClientID: "CL1002"}))

	profiles, err := store.FindExpiringBetween(ctx, base, base.AddDate(0, 0, 31))
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "CL1001", profiles[0].ClientID)
}

func TestTradeQueries(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBatch(ctx, []domain.Trade{
		{TradeID: "T1", ClientID: "CL1001", TradeDate: day.Add(10 * time.Hour)},
		{TradeID: "T2", ClientID: "CL1001", TradeDate: day.Add(14 * time.Hour)},
		{TradeID: "T3", ClientID: "CL1002", TradeDate: day.AddDate(0, 0, -3)},
	}))

	trades, err := store.FindByDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	last, err := store.LastTradeTime(ctx, "CL1001")
	require.NoError(t, err)
	assert.Equal(t, day.Add(14*time.Hour), last)

	_, err = store.LastTradeTime(ctx, "CL9999")
	assert.ErrorIs(t, err, pkgerrors.ErrTradeNotFound)
}

func TestCollectedMarginDefaultsToZero(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	collected, err := store.CollectedMargin(ctx, domain.Trade{TradeID: "T1"})
	require.NoError(t, err)
	assert.True(t, collected.IsZero())

	require.NoError(t, store.Record(ctx, "T1", decimal.NewFromInt(3100)))
	collected, err = store.CollectedMargin(ctx, domain.Trade{TradeID: "T1"})
	require.NoError(t, err)
	assert.True(t, collected.Equal(decimal.NewFromInt(3100)))
}
