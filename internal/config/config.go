package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"sqlbase/internal/platform/sqlite"
)

// Config holds application configuration values.
type Config struct {
	Env string `validate:"required,oneof=dev prod"`
	DB  struct {
		Path         string        `validate:"required"`
		BusyTimeout  time.Duration `validate:"gte=0"`
		TxLockMode   string        `validate:"required,oneof=DEFERRED IMMEDIATE EXCLUSIVE"`
		VerifySchema bool
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	c.Env = getenv("ENV", "prod")
	c.DB.Path = getenv("DB_PATH", "tutorial.db")
	c.DB.TxLockMode = strings.ToUpper(getenv("DB_TX_LOCK", string(sqlite.TxLockDeferred)))
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = os.Getenv("LOG_FILE")

	var err error
	if c.DB.BusyTimeout, err = time.ParseDuration(getenv("DB_BUSY_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("DB_BUSY_TIMEOUT: %w", err)
	}
	if c.DB.VerifySchema, err = strconv.ParseBool(getenv("DB_VERIFY_SCHEMA", "false")); err != nil {
		return Config{}, fmt.Errorf("DB_VERIFY_SCHEMA: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks field constraints after values have been overridden.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.DB.Path == sqlite.MemoryPath && c.Env == "prod" {
		return errors.New("DB_PATH=:memory: is only allowed with ENV=dev")
	}
	return nil
}

// DBOptions returns connection options for the configured database.
func (c Config) DBOptions() sqlite.DBOptions {
	opts := sqlite.DefaultDBOptions()
	opts.BusyTimeout = c.DB.BusyTimeout
	opts.TxLockMode = sqlite.TxLockMode(c.DB.TxLockMode)
	return opts
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
