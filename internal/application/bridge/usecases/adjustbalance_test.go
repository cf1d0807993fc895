package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapbridge/internal/domain/shared/amount"
	apperrors "tapbridge/internal/shared/errors"
)

func TestAdjustBalanceUseCase_CreditAndDebit(t *testing.T) {
	ledgerRepo := newFakeLedgerRepo()
	uc := NewAdjustBalanceUseCase(ledgerRepo, newNoopLogger())

	result, err := uc.Credit(context.Background(), AdjustBalanceCommand{
		UserID:    "user-1",
		AmountRaw: 5 * amount.RawPerToken,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5*amount.RawPerToken), result.BalanceRaw)
	assert.Equal(t, "5", result.Balance)

	result, err = uc.Debit(context.Background(), AdjustBalanceCommand{
		UserID:    "user-1",
		AmountRaw: 2 * amount.RawPerToken,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3*amount.RawPerToken), result.BalanceRaw)
}

func TestAdjustBalanceUseCase_Debit_InsufficientBalance(t *testing.T) {
	ledgerRepo := newFakeLedgerRepo()
	uc := NewAdjustBalanceUseCase(ledgerRepo, newNoopLogger())

	_, err := uc.Debit(context.Background(), AdjustBalanceCommand{
		UserID:    "user-1",
		AmountRaw: amount.RawPerToken,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
	assert.Equal(t, uint64(0), ledgerRepo.balance("user-1"))
}

func TestGetBalanceUseCase_Execute_UnknownUserHasZeroBalance(t *testing.T) {
	uc := NewGetBalanceUseCase(newFakeLedgerRepo())

	result, err := uc.Execute(context.Background(), GetBalanceCommand{UserID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.BalanceRaw)
	assert.Equal(t, "0", result.Balance)
}
