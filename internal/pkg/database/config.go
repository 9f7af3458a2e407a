package database

import (
	"fmt"

	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

// Config holds the MySQL connection parameters shared by the server and the
// migration tool.
type Config struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

func ConfigFromEnv() Config {
	return Config{
		User:     env.GetEnv("DB_USER", "eventfox"),
		Password: env.GetEnv("DB_PASSWORD", ""),
		Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
		Port:     env.GetEnv("DB_PORT", "3306"),
		Name:     env.GetEnv("DB_NAME", "eventfox_db"),
	}
}

// DSN is the go-sql-driver form used by GORM.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// MigrateURL is the golang-migrate form. Migration files hold several
// statements each, so multiStatements is required.
func (c Config) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true&parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// String omits the password so the value can be logged.
func (c Config) String() string {
	return fmt.Sprintf("%s@%s:%s/%s", c.User, c.Host, c.Port, c.Name)
}
