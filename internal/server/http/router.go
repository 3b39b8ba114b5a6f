package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradingagents/internal/server/app"
	"tradingagents/internal/server/ports"
)

// RouterConfig controls router behavior.
type RouterConfig struct {
	Debug      bool
	EnableCORS bool
}

// NewRouter creates the gin engine with all endpoints mounted.
func NewRouter(coordinator *app.Coordinator, hub *app.Hub, tradingSvc ports.TradingService, gatherer prometheus.Gatherer, cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())

	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
		corsConfig.AllowWebSockets = true
		engine.Use(cors.New(corsConfig))
	}

	apiHandler := NewAPIHandler(coordinator)
	tradeHandler := NewTradeHandler(tradingSvc)
	wsHandler := NewWSHandler(hub)

	engine.GET("/", apiHandler.HandleRoot)
	engine.GET("/health", apiHandler.HandleHealth)

	engine.POST("/start-analysis", apiHandler.HandleStartAnalysis)
	engine.GET("/analysis/:session_id", apiHandler.HandleGetAnalysis)
	engine.GET("/analysis/:session_id/reports", apiHandler.HandleGetReports)
	engine.DELETE("/analysis/:session_id", apiHandler.HandleDeleteAnalysis)
	engine.POST("/cleanup-sessions", apiHandler.HandleCleanupSessions)
	engine.GET("/debug/sessions", apiHandler.HandleDebugSessions)

	trade := engine.Group("/trade")
	{
		trade.POST("/buy", tradeHandler.HandleBuy)
		trade.POST("/sell", tradeHandler.HandleSell)
		trade.GET("/portfolio", tradeHandler.HandlePortfolio)
	}

	engine.GET("/ws/:session_id", wsHandler.Handle)

	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return engine
}

// NewServer wraps the engine in an http.Server with sane timeouts.
// WriteTimeout stays zero so long-lived websocket connections survive.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
}
