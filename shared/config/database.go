package config

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pavitra93/gym-billing-system/shared/models"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// GetDatabaseConfig returns database configuration from environment variables
func GetDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "gym_billing"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		TimeZone: getEnv("TIMEZONE", DefaultTimeZone),
	}
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.TimeZone)
}

// ConnectDatabase opens the pool described by cfg
func ConnectDatabase(cfg *DatabaseConfig) (*gorm.DB, error) {
	return Open(cfg.GetDSN())
}

// Open connects to dsn with the service pool settings
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// API, scheduler and audit consumer share one Postgres
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the billing tables
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Gym{},
		&models.MembershipPlan{},
		&models.Member{},
		&models.MemberAttendance{},
		&models.Payment{},
		&models.Receipt{},
		&models.Reminder{},
		&models.ActivityLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// gorm index tags cannot carry this predicate
	err = db.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s
		ON reminders (gym_id, member_id, reminder_type, due_date)
		WHERE reminder_type = '%s' AND status IN ('%s', '%s')`,
		models.ExpiryReminderIndex, models.ReminderTypeMembershipExpiring,
		models.ReminderStatusPending, models.ReminderStatusSent)).Error
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", models.ExpiryReminderIndex, err)
	}
	return nil
}
