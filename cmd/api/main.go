package main

import (
	"flag"
	"os"

	"github.com/gin-gonic/gin"

	"etf-grid-backtest/internal/api/handlers"
	"etf-grid-backtest/internal/api/middleware"
	"etf-grid-backtest/internal/config"
	"etf-grid-backtest/internal/data"
	"etf-grid-backtest/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	dbPath := flag.String("db", "", "path to SQLite bar store (optional)")
	addr := flag.String("addr", "", "listen address, overrides config")
	flag.Parse()

	log := logger.L()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalw("load config", "path", *configPath, "error", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	var store *data.Store
	if *dbPath != "" {
		s, err := data.OpenStore(*dbPath)
		if err != nil {
			log.Fatalw("open bar store", "path", *dbPath, "error", err)
		}
		defer s.Close()
		store = s
		log.Infow("bar store opened", "path", *dbPath)
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	backtestHandler := handlers.NewBacktestHandler(cfg, store)
	symbolsHandler := handlers.NewSymbolsHandler(store)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.POST("/backtest/manual", backtestHandler.RunManual)
		api.POST("/sweep", backtestHandler.Sweep)
		api.POST("/suitability", backtestHandler.Suitability)

		api.GET("/symbols", symbolsHandler.ListSymbols)
	}

	log.Infow("starting API server", "addr", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
