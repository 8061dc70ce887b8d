package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through LEAD_STORE.
const (
	StoreDynamo   = "dynamo"
	StorePostgres = "postgres"
)

// SMS providers selectable through SMS_PROVIDER.
const (
	SMSProviderWhatSMS = "whatsms"
	SMSProviderSNS     = "sns"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AppBaseURL     string   // prefix for emailed verification links
	AllowedOrigins []string // CORS allowed origins

	LeadStore   string
	DatabaseURL string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SMSProvider     string
	SMSCountryCode  string
	SNSRegion       string
	WhatSMSBaseURL  string
	WhatSMSToken    string
	WhatSMSDeviceID string

	EmailTokenTTL time.Duration
	PhoneOTPTTL   time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	RedisURL       string // optional; shares rate-limit buckets across instances
	// TrustedProxy honours X-Forwarded-For / X-Real-Ip. Only set it when every
	// request arrives through a proxy that overwrites those headers.
	TrustedProxy bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Leads string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AppBaseURL:     strings.TrimSuffix(getEnv("APP_BASE_URL", "http://localhost:3001"), "/"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		LeadStore:   getEnv("LEAD_STORE", StoreDynamo),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Leads: getEnv("DYNAMO_TABLE_LEADS", "leads"),
		},

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SMSProvider:     getEnv("SMS_PROVIDER", SMSProviderWhatSMS),
		SMSCountryCode:  getEnv("SMS_COUNTRY_CODE", "27"),
		SNSRegion:       getEnv("SNS_REGION", "us-east-1"),
		WhatSMSBaseURL:  getEnv("WHATSMS_BASE_URL", "http://api.whatsms.in/api/sendMessage.php"),
		WhatSMSToken:    getEnv("WHATSMS_API_TOKEN", ""),
		WhatSMSDeviceID: getEnv("WHATSMS_DEVICE_ID", ""),

		EmailTokenTTL: getEnvDuration("EMAIL_TOKEN_TTL", 24*time.Hour),
		PhoneOTPTTL:   getEnvDuration("PHONE_OTP_TTL", 10*time.Minute),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		RedisURL:       getEnv("REDIS_URL", ""),
		TrustedProxy:   getEnvBool("TRUSTED_PROXY", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
