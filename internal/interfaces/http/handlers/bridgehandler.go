package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tapbridge/internal/application/bridge/usecases"
	"tapbridge/internal/domain/shared/amount"
	"tapbridge/internal/shared/logger"
	"tapbridge/internal/shared/utils"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = utils.RegisterBindingValidations(v)
	}
}

type BridgeHandler struct {
	createDepositUC       *usecases.CreateDepositUseCase
	getDepositStatusUC    *usecases.GetDepositStatusUseCase
	createWithdrawalUC    *usecases.CreateWithdrawalUseCase
	getWithdrawalStatusUC *usecases.GetWithdrawalStatusUseCase
	getBalanceUC          *usecases.GetBalanceUseCase
	adjustBalanceUC       *usecases.AdjustBalanceUseCase
	logger                logger.Interface
}

func NewBridgeHandler(
	createDepositUC *usecases.CreateDepositUseCase,
	getDepositStatusUC *usecases.GetDepositStatusUseCase,
	createWithdrawalUC *usecases.CreateWithdrawalUseCase,
	getWithdrawalStatusUC *usecases.GetWithdrawalStatusUseCase,
	getBalanceUC *usecases.GetBalanceUseCase,
	adjustBalanceUC *usecases.AdjustBalanceUseCase,
) *BridgeHandler {
	return &BridgeHandler{
		createDepositUC:       createDepositUC,
		getDepositStatusUC:    getDepositStatusUC,
		createWithdrawalUC:    createWithdrawalUC,
		getWithdrawalStatusUC: getWithdrawalStatusUC,
		getBalanceUC:          getBalanceUC,
		adjustBalanceUC:       adjustBalanceUC,
		logger:                logger.NewLogger(),
	}
}

type CreateDepositRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

type CreateDepositResponse struct {
	DepositID      string `json:"deposit_id"`
	DepositAddress string `json:"deposit_address"`
	UniqueAmount   string `json:"unique_amount"`
	ExpiresAt      string `json:"expires_at"`
}

// CreateDeposit issues a deposit intent. The caller must send exactly the
// returned unique amount to the deposit address before expiry.
func (h *BridgeHandler) CreateDeposit(c *gin.Context) {
	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create deposit", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	amountRaw, err := amount.Parse(req.Amount)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.createDepositUC.Execute(c.Request.Context(), usecases.CreateDepositCommand{
		UserID:    req.UserID,
		AmountRaw: amountRaw,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, CreateDepositResponse{
		DepositID:      result.DepositID,
		DepositAddress: result.DepositAddress,
		UniqueAmount:   result.UniqueAmount,
		ExpiresAt:      result.ExpiresAt.Format(time.RFC3339),
	}, "deposit intent created")
}

// GetDeposit returns the current state of a deposit intent.
func (h *BridgeHandler) GetDeposit(c *gin.Context) {
	result, err := h.getDepositStatusUC.Execute(c.Request.Context(), usecases.GetDepositStatusCommand{
		DepositID: c.Param("deposit_id"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

type CreateWithdrawalRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ToAddress string `json:"to_address" binding:"required,evmaddress"`
	Amount    string `json:"amount" binding:"required"`
}

type CreateWithdrawalResponse struct {
	WithdrawalID string `json:"withdrawal_id"`
	Status       string `json:"status"`
}

// CreateWithdrawal debits the balance and enqueues an on-chain payout.
func (h *BridgeHandler) CreateWithdrawal(c *gin.Context) {
	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create withdrawal", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	amountRaw, err := amount.Parse(req.Amount)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.createWithdrawalUC.Execute(c.Request.Context(), usecases.CreateWithdrawalCommand{
		UserID:    req.UserID,
		ToAddress: req.ToAddress,
		AmountRaw: amountRaw,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, CreateWithdrawalResponse{
		WithdrawalID: result.WithdrawalID,
		Status:       result.Status,
	}, "withdrawal enqueued")
}

// GetWithdrawal returns the current state of a withdrawal request.
func (h *BridgeHandler) GetWithdrawal(c *gin.Context) {
	result, err := h.getWithdrawalStatusUC.Execute(c.Request.Context(), usecases.GetWithdrawalStatusCommand{
		WithdrawalID: c.Param("withdrawal_id"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetBalance returns a user's spendable balance.
func (h *BridgeHandler) GetBalance(c *gin.Context) {
	result, err := h.getBalanceUC.Execute(c.Request.Context(), usecases.GetBalanceCommand{
		UserID: c.Param("user_id"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

type AdjustBalanceRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// CreditBalance applies an off-chain game credit (player earned tokens).
// Internal endpoint for the game server, not exposed to players.
func (h *BridgeHandler) CreditBalance(c *gin.Context) {
	h.adjust(c, h.adjustBalanceUC.Credit)
}

// DebitBalance applies an off-chain game debit (player spent tokens).
func (h *BridgeHandler) DebitBalance(c *gin.Context) {
	h.adjust(c, h.adjustBalanceUC.Debit)
}

func (h *BridgeHandler) adjust(c *gin.Context, apply func(ctx context.Context, cmd usecases.AdjustBalanceCommand) (*usecases.AdjustBalanceResult, error)) {
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for balance adjustment", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	amountRaw, err := amount.Parse(req.Amount)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := apply(c.Request.Context(), usecases.AdjustBalanceCommand{
		UserID:    req.UserID,
		AmountRaw: amountRaw,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
