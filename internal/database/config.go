package database

import (
	"fmt"
	"strings"

	"wallet/internal/config"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database configuration
type Config struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	SQLitePath     string
	MigrationsPath string
}

// NewConfig derives the database configuration from the application config.
func NewConfig(app *config.Config) (*Config, error) {
	driver := strings.ToLower(app.DBDriver)
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", app.DBDriver)
	}

	return &Config{
		Driver:         driver,
		Host:           app.DBHost,
		Port:           app.DBPort,
		User:           app.DBUser,
		Password:       app.DBPassword,
		DBName:         app.DBName,
		SSLMode:        app.DBSSLMode,
		SQLitePath:     app.SQLitePath,
		MigrationsPath: app.MigrationsPath,
	}, nil
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the postgres:// URL golang-migrate expects.
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// SourceURL returns the file:// URL of the migrations directory.
func (c *Config) SourceURL() string {
	return "file://" + c.MigrationsPath
}
