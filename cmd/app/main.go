package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightning_sats/internal/bot"
	"lightning_sats/internal/config"
	"lightning_sats/internal/db"
	httpServer "lightning_sats/internal/http"
	"lightning_sats/internal/http/middleware"
	"lightning_sats/internal/logger"
	"lightning_sats/internal/notify"
	"lightning_sats/internal/price"
	"lightning_sats/internal/repository"
	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")
	cfg := config.Load()
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	notifier := notify.New(cfg.BotToken, cfg.AdminTelegramIDs)

	pricePoller := price.NewPoller()
	if err := pricePoller.Start(cfg.PricePollCron); err != nil {
		logger.Warn("price poller not started", "error", err)
	}
	defer pricePoller.Stop()

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Telegram-Init-Data")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := httpServer.RegisterRoutes(r, dbPool, cfg, notifier, pricePoller)

	// Country gate on page loads, admins exempt
	r.Use(middleware.CountryBlock(h.Gate, h.Admins, "web/blocked.html"))

	// Frontend static files
	r.StaticFS("/assets", gin.Dir("web/assets", false))
	r.NoRoute(func(c *gin.Context) {
		c.File("web/index.html")
	})

	// Admin bot polls Telegram in the background
	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled && len(cfg.AdminTelegramIDs) > 0 {
		var err error
		adminBot, err = bot.NewAdminBot(cfg.BotToken, cfg.AdminTelegramIDs, bot.Deps{
			Accounts:    h.Accounts,
			Withdrawals: h.Withdrawals,
			Countries:   h.Countries,
			BanLogs:     h.BanLogs,
			Stats:       repository.NewStatsRepository(dbPool),
			Abuse:       h.Abuse,
			Payouts:     h.WithdrawalSvc,
		})
		if err != nil {
			logger.Error("admin bot init failed", "error", err)
		} else {
			go adminBot.Start()
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	if adminBot != nil {
		adminBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
