package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeZone    = "Asia/Kolkata"
	DefaultCountryCode = "91"
)

// NotifyConfig selects and configures the outbound messaging channel
type NotifyConfig struct {
	Channel     string // whatsapp, sns or log
	Timeout     time.Duration
	CountryCode string

	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string
	WhatsAppAPIVersion    string
	WhatsAppBaseURL       string

	AWSRegion string
}

// Config is the environment of a service binary
type Config struct {
	Database *DatabaseConfig
	Notify   NotifyConfig

	Location *time.Location

	RedisHost string
	RedisPort string

	KafkaBroker string
	AuditTopic  string

	JWTSecret   string
	JWTIssuer   string
	AdminAPIKey string

	APIPort        string
	SchedulerCron  string
	ReportCacheTTL time.Duration
}

// Load reads .env when present and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", DefaultTimeZone))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	timeout, err := getDuration("NOTIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getDuration("REPORT_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: GetDatabaseConfig(),
		Notify: NotifyConfig{
			Channel:               getEnv("NOTIFY_CHANNEL", "whatsapp"),
			Timeout:               timeout,
			CountryCode:           getEnv("DEFAULT_COUNTRY_CODE", DefaultCountryCode),
			WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			WhatsAppAccessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			WhatsAppAPIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
			WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			AWSRegion:             getEnv("AWS_REGION", "ap-south-1"),
		},
		Location:       loc,
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		AuditTopic:     getEnv("AUDIT_TOPIC", "activity-logs"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      getEnv("JWT_ISSUER", "gym-billing"),
		AdminAPIKey:    os.Getenv("ADMIN_API_KEY"),
		APIPort:        getEnv("API_PORT", "8080"),
		SchedulerCron:  getEnv("SCHEDULER_CRON", "0 9 * * *"),
		ReportCacheTTL: cacheTTL,
	}, nil
}

// Clock returns the current time in the configured location
func (c *Config) Clock() func() time.Time {
	loc := c.Location
	return func() time.Time { return time.Now().In(loc) }
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
