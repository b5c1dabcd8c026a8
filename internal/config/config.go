package config

import (
	"os"
	"strconv"
	"strings"

	"lightning_sats/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	BotUsername string
	JWTSecret   string

	AdminTelegramIDs []int64
	AdminBotEnabled  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Geo lookup
	GeoAPIURL string

	// Reward rates (sats)
	PerAdReward  int64
	StreakBonus  int64
	DailyAdLimit int

	// Referral program
	ReferralCommissionPercent int
	ReferralMinAds            int

	// Fingerprint similarity thresholds
	FPAbuseThreshold   float64
	FPSelfRefThreshold float64

	// Withdrawals
	MinWithdrawal int64

	// Price poller cron spec ("@hourly" style)
	PricePollCron string
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	botUsername := os.Getenv("BOT_USERNAME")
	if botUsername == "" {
		botUsername = "LightningSatsBot"
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// тг id админов !! ЧЕРЕЗ ЗАПЯТУЮ В ENV !!
	var adminIDs []int64
	if s := os.Getenv("ADMIN_TELEGRAM_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	geoURL := os.Getenv("GEO_API_URL")
	if geoURL == "" {
		geoURL = "http://ip-api.com/json"
	}

	pricePollCron := os.Getenv("PRICE_POLL_CRON")
	if pricePollCron == "" {
		pricePollCron = "@every 15m"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		BotToken:    botToken,
		BotUsername: botUsername,
		JWTSecret:   jwtSecret,

		AdminTelegramIDs: adminIDs,
		AdminBotEnabled:  os.Getenv("ADMIN_BOT_ENABLED") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		GeoAPIURL: geoURL,

		PerAdReward:  envInt64("PER_AD_REWARD", 24),
		StreakBonus:  envInt64("STREAK_BONUS", 200),
		DailyAdLimit: envInt("DAILY_AD_LIMIT", 250),

		ReferralCommissionPercent: envInt("REFERRAL_COMMISSION_PERCENT", 10),
		ReferralMinAds:            envInt("REFERRAL_MIN_ADS", 1),

		FPAbuseThreshold:   envFloat("FP_ABUSE_THRESHOLD", 0.75),
		FPSelfRefThreshold: envFloat("FP_SELF_REF_THRESHOLD", 0.80),

		MinWithdrawal: envInt64("MIN_WITHDRAWAL", 1000),

		PricePollCron: pricePollCron,
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
