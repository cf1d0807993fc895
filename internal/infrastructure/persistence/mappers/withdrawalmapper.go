package mappers

import (
	"fmt"

	"tapbridge/internal/domain/withdrawal"
	vo "tapbridge/internal/domain/withdrawal/valueobjects"
	"tapbridge/internal/infrastructure/persistence/models"
)

func WithdrawalToModel(req *withdrawal.Request) *models.WithdrawalRequestModel {
	return &models.WithdrawalRequestModel{
		ID:           req.DBID(),
		WithdrawalID: req.WithdrawalID(),
		UserID:       req.UserID(),
		ToAddress:    req.ToAddress(),
		AmountRaw:    req.AmountRaw(),
		Status:       string(req.Status()),
		TxHash:       req.TxHash(),
		LastError:    req.LastError(),
		Nonce:        req.Nonce(),
		RequestedAt:  req.RequestedAt(),
		ClaimedAt:    req.ClaimedAt(),
		ProcessedAt:  req.ProcessedAt(),
		Version:      req.Version(),
		CreatedAt:    req.CreatedAt(),
		UpdatedAt:    req.UpdatedAt(),
	}
}

func WithdrawalToDomain(model *models.WithdrawalRequestModel) (*withdrawal.Request, error) {
	status := vo.WithdrawalStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid withdrawal status: %s", model.Status)
	}

	return withdrawal.ReconstructRequest(withdrawal.RequestParams{
		DBID:         model.ID,
		WithdrawalID: model.WithdrawalID,
		UserID:       model.UserID,
		ToAddress:    model.ToAddress,
		AmountRaw:    model.AmountRaw,
		Status:       status,
		TxHash:       model.TxHash,
		LastError:    model.LastError,
		Nonce:        model.Nonce,
		RequestedAt:  model.RequestedAt,
		ClaimedAt:    model.ClaimedAt,
		ProcessedAt:  model.ProcessedAt,
		Version:      model.Version,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}), nil
}
