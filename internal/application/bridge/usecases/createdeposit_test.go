package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "tapbridge/internal/domain/deposit/valueobjects"
	"tapbridge/internal/domain/shared/amount"
	apperrors "tapbridge/internal/shared/errors"
)

const testDepositAddress = "0x000000000000000000000000000000000000dEaD"

func TestCreateDepositUseCase_Execute_Success(t *testing.T) {
	repo := newFakeDepositRepo()
	uc := NewCreateDepositUseCase(repo, testDepositAddress, time.Hour, newNoopLogger())

	result, err := uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 10 * amount.RawPerToken,
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.DepositID)
	assert.Equal(t, testDepositAddress, result.DepositAddress)

	// The unique amount is the nominal amount plus a sub-token offset.
	assert.Greater(t, result.UniqueAmountRaw, uint64(10*amount.RawPerToken))
	assert.Less(t, result.UniqueAmountRaw, uint64(11*amount.RawPerToken))
	assert.Equal(t, uint64(10*amount.RawPerToken)+vo.OffsetRaw("user-1"), result.UniqueAmountRaw)

	intent, err := repo.GetByDepositID(context.Background(), result.DepositID)
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, vo.DepositStatusWaiting, intent.Status())
}

func TestCreateDepositUseCase_Execute_OffsetStablePerUser(t *testing.T) {
	repo := newFakeDepositRepo()
	uc := NewCreateDepositUseCase(repo, testDepositAddress, time.Hour, newNoopLogger())

	first, err := uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 10 * amount.RawPerToken,
	})
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 25 * amount.RawPerToken,
	})
	require.NoError(t, err)

	// Same user, different amounts: same offset.
	assert.Equal(t,
		first.UniqueAmountRaw-10*amount.RawPerToken,
		second.UniqueAmountRaw-25*amount.RawPerToken,
	)
}

func TestCreateDepositUseCase_Execute_RejectsDuplicateOutstanding(t *testing.T) {
	repo := newFakeDepositRepo()
	uc := NewCreateDepositUseCase(repo, testDepositAddress, time.Hour, newNoopLogger())

	_, err := uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 10 * amount.RawPerToken,
	})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 10 * amount.RawPerToken,
	})
	assert.ErrorIs(t, err, apperrors.ErrDepositOutstanding)

	// A different amount for the same user is fine.
	_, err = uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 20 * amount.RawPerToken,
	})
	assert.NoError(t, err)
}

// raceDepositRepo models the window where a competing insert for the same
// (user, amount) pair commits after the outstanding check has already run.
type raceDepositRepo struct {
	*fakeDepositRepo
}

func (r raceDepositRepo) HasOutstanding(ctx context.Context, userID string, amountRaw uint64) (bool, error) {
	return false, nil
}

func TestCreateDepositUseCase_Execute_ConcurrentDuplicateHitsInsertGuard(t *testing.T) {
	repo := raceDepositRepo{newFakeDepositRepo()}
	uc := NewCreateDepositUseCase(repo, testDepositAddress, time.Hour, newNoopLogger())

	_, err := uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 10 * amount.RawPerToken,
	})
	require.NoError(t, err)

	// The stale outstanding check lets the duplicate through; the insert
	// itself rejects it.
	_, err = uc.Execute(context.Background(), CreateDepositCommand{
		UserID:    "user-1",
		AmountRaw: 10 * amount.RawPerToken,
	})
	assert.ErrorIs(t, err, apperrors.ErrDepositOutstanding)

	waiting, err := repo.ListWaiting(context.Background())
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

func TestCreateDepositUseCase_Execute_ValidationErrors(t *testing.T) {
	repo := newFakeDepositRepo()
	uc := NewCreateDepositUseCase(repo, testDepositAddress, time.Hour, newNoopLogger())

	_, err := uc.Execute(context.Background(), CreateDepositCommand{AmountRaw: amount.RawPerToken})
	assert.Error(t, err)

	_, err = uc.Execute(context.Background(), CreateDepositCommand{UserID: "user-1"})
	assert.Error(t, err)
}
