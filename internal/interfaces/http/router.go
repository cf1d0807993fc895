// Package http wires the gin engine: middleware, health probe and the
// bridge route groups.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tapbridge/internal/interfaces/http/handlers"
	"tapbridge/internal/interfaces/http/middleware"
	"tapbridge/internal/interfaces/http/routes"
	"tapbridge/internal/shared/logger"
)

// Router holds the engine and the handler set behind it.
type Router struct {
	engine        *gin.Engine
	bridgeHandler *handlers.BridgeHandler
	logger        logger.Interface
}

func NewRouter(bridgeHandler *handlers.BridgeHandler, log logger.Interface) *Router {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))

	return &Router{
		engine:        engine,
		bridgeHandler: bridgeHandler,
		logger:        log,
	}
}

// SetupRoutes registers all route groups.
func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupBridgeRoutes(r.engine, &routes.BridgeRouteConfig{
		BridgeHandler: r.bridgeHandler,
	})
}

// GetEngine returns the underlying gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
