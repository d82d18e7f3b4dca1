// Package testing provides test utilities and database setup for the Bind profile service
package testing

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bindlabs/bind/models"
)

// migratedModels is every entity the schema carries
var migratedModels = []any{
	&models.Profile{},
	&models.Link{},
	&models.AnalyticsEvent{},
	&models.AuditLog{},
}

// SetupSqliteDB opens an in-memory sqlite database with the full schema.
// Each call returns an isolated database, so tests can run in parallel
// without sharing state.
func SetupSqliteDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(migratedModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// TestDBConfig holds configuration for Postgres integration test databases
type TestDBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
}

// GetTestDBConfig loads test database configuration from environment variables
func GetTestDBConfig() *TestDBConfig {
	return &TestDBConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		SSLMode:  getEnv("TEST_DB_SSL_MODE", "disable"),
	}
}

// TestDB represents a disposable Postgres test database
type TestDB struct {
	DB     *gorm.DB
	Name   string
	config *TestDBConfig
}

// SetupTestDB creates a uniquely named Postgres database and runs migrations.
// Integration tests that need real Postgres semantics use this; everything
// else sticks to SetupSqliteDB.
func SetupTestDB() (*TestDB, error) {
	cfg := GetTestDBConfig()
	name := fmt.Sprintf("bind_test_%d_%d", time.Now().UnixNano(), rand.Intn(10000))

	adminDSN := fmt.Sprintf("host=%s port=%d user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.SSLMode)
	adminDB, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer adminDB.Close()

	if _, err := adminDB.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("failed to create test database: %w", err)
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, name, cfg.SSLMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}
	if err := db.AutoMigrate(migratedModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &TestDB{DB: db, Name: name, config: cfg}, nil
}

// Teardown drops the test database
func (t *TestDB) Teardown() error {
	if sqlDB, err := t.DB.DB(); err == nil {
		sqlDB.Close()
	}

	adminDSN := fmt.Sprintf("host=%s port=%d user=%s password=%s sslmode=%s",
		t.config.Host, t.config.Port, t.config.User, t.config.Password, t.config.SSLMode)
	adminDB, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer adminDB.Close()

	_, err = adminDB.Exec("DROP DATABASE IF EXISTS " + t.Name)
	return err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
