package config

import (
	"os"
	"strconv"
)

type Config struct {
	Env  string
	Port int

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RabbitURL     string

	ProcessorBaseURL string
	ProcessorSecret  string
	ProcessorPublic  string
	ProductName      string
	PostbackBaseURL  string
	WebhookSecret    string

	TrackingURL   string
	TrackingToken string

	RegistryBaseURL string

	AdminJWTSecret string

	// DefaultAmountCents is charged when the checkout request carries no
	// usable amount.
	DefaultAmountCents int
}

func Default() Config {
	return Config{
		Env:                "dev",
		Port:               8080,
		DatabaseURL:        "",
		RedisAddr:          "",
		RedisPassword:      "",
		RedisDB:            0,
		RabbitURL:          "",
		ProcessorBaseURL:   "https://api.quantumpayments.com.br/v1",
		ProcessorSecret:    "",
		ProcessorPublic:    "",
		ProductName:        "Produto",
		PostbackBaseURL:    "",
		WebhookSecret:      "",
		TrackingURL:        "",
		TrackingToken:      "",
		RegistryBaseURL:    "https://minhareceita.org",
		AdminJWTSecret:     "",
		DefaultAmountCents: 5940,
	}
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

func fromEnv(c Config) Config {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	str("PIX_ENV", &c.Env)
	num("PIX_PORT", &c.Port)
	str("PIX_DATABASE_URL", &c.DatabaseURL)
	str("PIX_REDIS_ADDR", &c.RedisAddr)
	str("PIX_REDIS_PASSWORD", &c.RedisPassword)
	num("PIX_REDIS_DB", &c.RedisDB)
	str("PIX_RABBITMQ_URL", &c.RabbitURL)
	str("PIX_PROCESSOR_BASE_URL", &c.ProcessorBaseURL)
	str("PIX_PROCESSOR_SECRET_KEY", &c.ProcessorSecret)
	str("PIX_PROCESSOR_PUBLIC_KEY", &c.ProcessorPublic)
	str("PIX_PRODUCT_NAME", &c.ProductName)
	str("PIX_POSTBACK_BASE_URL", &c.PostbackBaseURL)
	str("PIX_WEBHOOK_SECRET", &c.WebhookSecret)
	str("PIX_TRACKING_URL", &c.TrackingURL)
	str("PIX_TRACKING_TOKEN", &c.TrackingToken)
	str("PIX_REGISTRY_BASE_URL", &c.RegistryBaseURL)
	str("PIX_ADMIN_JWT_SECRET", &c.AdminJWTSecret)
	num("PIX_DEFAULT_AMOUNT_CENTS", &c.DefaultAmountCents)
	return c
}
