package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr           string
	DBDSN              string
	JWTIssuer          string
	JWTSecret          string
	JWTTTL             time.Duration
	InternalToken      string
	WebSocketOrigin    string
	AppMode            string
	LockTimeout        time.Duration
	QuoteMaxAge        time.Duration
	QuoteSource        string
	RecorderSQLitePath string
	DailyResetCron     string
	SweepCron          string
	PlansFile          string
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = strings.TrimSpace(os.Getenv("DB_DSN"))
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	if c.InternalToken == "" {
		missing = append(missing, "INTERNAL_API_TOKEN")
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		c.WebSocketOrigin = "*"
	}
	c.AppMode = strings.ToLower(strings.TrimSpace(os.Getenv("APP_MODE")))
	if c.AppMode == "" {
		c.AppMode = "development"
	}
	if c.AppMode != "development" && c.AppMode != "production" {
		return c, errors.New("invalid APP_MODE: use development or production")
	}
	var err error
	if c.LockTimeout, err = durationEnv("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return c, err
	}
	if c.QuoteMaxAge, err = durationEnv("QUOTE_MAX_AGE", 30*time.Second); err != nil {
		return c, err
	}
	c.QuoteSource = strings.ToLower(strings.TrimSpace(os.Getenv("QUOTE_SOURCE")))
	if c.QuoteSource == "" {
		c.QuoteSource = "yahoo"
	}
	if c.QuoteSource != "yahoo" && c.QuoteSource != "static" {
		return c, errors.New("invalid QUOTE_SOURCE: use yahoo or static")
	}
	if c.AppMode == "production" && c.QuoteSource == "static" {
		return c, errors.New("QUOTE_SOURCE=static is not allowed in production")
	}
	c.RecorderSQLitePath = strings.TrimSpace(os.Getenv("RECORDER_SQLITE_PATH"))
	c.DailyResetCron = os.Getenv("DAILY_RESET_CRON")
	if c.DailyResetCron == "" {
		c.DailyResetCron = "0 0 0 * * *"
	}
	c.SweepCron = os.Getenv("SWEEP_CRON")
	if c.SweepCron == "" {
		c.SweepCron = "0 */5 * * * *"
	}
	c.PlansFile = strings.TrimSpace(os.Getenv("PLANS_FILE"))
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + err.Error())
	}
	if d <= 0 {
		return 0, errors.New("invalid " + key + ": must be positive")
	}
	return d, nil
}
