package routes

import (
	"github.com/gin-gonic/gin"

	"tapbridge/internal/interfaces/http/handlers"
)

// BridgeRouteConfig holds dependencies for bridge routes.
type BridgeRouteConfig struct {
	BridgeHandler *handlers.BridgeHandler
}

// SetupBridgeRoutes configures deposit, withdrawal and balance routes.
// The /internal group is for the game server only and must be shielded
// from player traffic at the network layer.
func SetupBridgeRoutes(engine *gin.Engine, cfg *BridgeRouteConfig) {
	bridge := engine.Group("/api/bridge")
	{
		bridge.POST("/deposits", cfg.BridgeHandler.CreateDeposit)
		bridge.GET("/deposits/:deposit_id", cfg.BridgeHandler.GetDeposit)

		bridge.POST("/withdrawals", cfg.BridgeHandler.CreateWithdrawal)
		bridge.GET("/withdrawals/:withdrawal_id", cfg.BridgeHandler.GetWithdrawal)

		bridge.GET("/balances/:user_id", cfg.BridgeHandler.GetBalance)
	}

	internal := engine.Group("/api/internal")
	{
		internal.POST("/balances/credit", cfg.BridgeHandler.CreditBalance)
		internal.POST("/balances/debit", cfg.BridgeHandler.DebitBalance)
	}
}
