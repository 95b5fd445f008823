package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	GatewaySimulated = "simulated"
	GatewayLocal     = "local"
)

// Config - настройки сервиса из переменных окружения
type Config struct {
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":2222"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000, http://localhost:8080"`

	OTPGateway     string        `env:"OTP_GATEWAY" envDefault:"simulated"`
	SendDelay      time.Duration `env:"OTP_SEND_DELAY" envDefault:"1s"`
	VerifyDelay    time.Duration `env:"OTP_VERIFY_DELAY" envDefault:"1s"`
	ResendCooldown int           `env:"OTP_RESEND_COOLDOWN" envDefault:"30"`
	CooldownTick   time.Duration `env:"OTP_COOLDOWN_TICK" envDefault:"1s"`
	CodeTTL        time.Duration `env:"OTP_CODE_TTL" envDefault:"5m"`
	MaxAttempts    int           `env:"OTP_MAX_ATTEMPTS" envDefault:"3"`

	SessionTTL   time.Duration `env:"LOGIN_SESSION_TTL" envDefault:"30m"`
	CookieName   string        `env:"LOGIN_COOKIE_NAME" envDefault:"storefront_login"`
	CookieSecure bool          `env:"LOGIN_COOKIE_SECURE" envDefault:"false"`
}

// Load читает конфигурацию из окружения и проверяет ее
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет значения, с которыми сервис не сможет работать
func (c Config) Validate() error {
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		// cors с AllowCredentials паникует на wildcard
		if strings.Contains(origin, "*") {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS must list explicit origins, got %q", strings.TrimSpace(origin))
		}
	}

	switch strings.ToLower(c.OTPGateway) {
	case GatewaySimulated, GatewayLocal:
	default:
		return fmt.Errorf("OTP_GATEWAY must be %q or %q, got %q", GatewaySimulated, GatewayLocal, c.OTPGateway)
	}

	if c.SendDelay < 0 || c.VerifyDelay < 0 {
		return fmt.Errorf("OTP delays must not be negative")
	}
	if c.ResendCooldown < 0 {
		return fmt.Errorf("OTP_RESEND_COOLDOWN must not be negative")
	}
	if c.CooldownTick <= 0 {
		return fmt.Errorf("OTP_COOLDOWN_TICK must be positive")
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("OTP_CODE_TTL must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("LOGIN_SESSION_TTL must be positive")
	}
	if c.CookieName == "" {
		return fmt.Errorf("LOGIN_COOKIE_NAME is required")
	}
	return nil
}
