package mappers

import (
	"fmt"

	"tapbridge/internal/domain/deposit"
	vo "tapbridge/internal/domain/deposit/valueobjects"
	"tapbridge/internal/infrastructure/persistence/models"
)

func DepositToModel(intent *deposit.Intent) *models.DepositIntentModel {
	return &models.DepositIntentModel{
		ID:              intent.DBID(),
		DepositID:       intent.DepositID(),
		UserID:          intent.UserID(),
		AmountRaw:       intent.AmountRaw(),
		UniqueAmountRaw: intent.UniqueAmountRaw(),
		DepositAddress:  intent.DepositAddress(),
		Status:          string(intent.Status()),
		ActiveKey:       depositActiveKey(intent),
		Confirmations:   intent.Confirmations(),
		TxHash:          intent.TxHash(),
		ExpiresAt:       intent.ExpiresAt(),
		Version:         intent.Version(),
		CreatedAt:       intent.CreatedAt(),
		UpdatedAt:       intent.UpdatedAt(),
	}
}

// depositActiveKey computes the uniqueness key guarding one outstanding
// intent per (user, amount). Terminal intents release the key.
func depositActiveKey(intent *deposit.Intent) *string {
	switch intent.Status() {
	case vo.DepositStatusWaiting, vo.DepositStatusPending:
		key := fmt.Sprintf("%s:%d", intent.UserID(), intent.AmountRaw())
		return &key
	}
	return nil
}

func DepositToDomain(model *models.DepositIntentModel) (*deposit.Intent, error) {
	status := vo.DepositStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid deposit status: %s", model.Status)
	}

	return deposit.ReconstructIntent(deposit.IntentParams{
		DBID:            model.ID,
		DepositID:       model.DepositID,
		UserID:          model.UserID,
		AmountRaw:       model.AmountRaw,
		UniqueAmountRaw: model.UniqueAmountRaw,
		DepositAddress:  model.DepositAddress,
		Status:          status,
		Confirmations:   model.Confirmations,
		TxHash:          model.TxHash,
		ExpiresAt:       model.ExpiresAt,
		Version:         model.Version,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}), nil
}
