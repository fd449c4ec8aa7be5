// Package config loads the environment driven settings for the booking
// service.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// Store driver names accepted by MEETINGROOM_STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLiteDSN keeps a busy timeout and WAL mode so concurrent commits
// queue briefly instead of failing immediately.
const DefaultSQLiteDSN = "file:meetingroom.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// Config captures environment driven configuration values for the booking
// service.
type Config struct {
	HTTPAddr       string            `env:"MEETINGROOM_HTTP_ADDR" validate:"required"`
	StoreDriver    string            `env:"MEETINGROOM_STORE_DRIVER" validate:"oneof=memory sqlite postgres"`
	SQLiteDSN      string            `env:"MEETINGROOM_SQLITE_DSN"`
	PostgresDSN    string            `env:"MEETINGROOM_POSTGRES_DSN"`
	RoomsFile      string            `env:"MEETINGROOM_ROOMS_FILE"`
	IdentitySecret string            `env:"MEETINGROOM_IDENTITY_SECRET" validate:"required,min=16"`
	DayStart       booking.TimeOfDay `env:"MEETINGROOM_DAY_START"`
	DayEnd         booking.TimeOfDay `env:"MEETINGROOM_DAY_END" validate:"gtfield=DayStart"`
	SlotMinutes    int               `env:"MEETINGROOM_SLOT_MINUTES" validate:"min=1"`
	CacheTTL       time.Duration     `env:"MEETINGROOM_CACHE_TTL"`
	LockTimeout    time.Duration     `env:"MEETINGROOM_LOCK_TIMEOUT"`
	TelegramToken  string            `env:"MEETINGROOM_TELEGRAM_TOKEN"`
	TelegramChatID int64             `env:"MEETINGROOM_TELEGRAM_CHAT_ID"`
	AllowedOrigins []string          `env:"MEETINGROOM_ALLOWED_ORIGINS"`
	LogLevel       string            `env:"MEETINGROOM_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// ConfigError reports every configuration problem found in one pass so
// operators can fix them together instead of one restart at a time.
type ConfigError struct {
	Missing []string
	Invalid []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid environment variable values: %s", strings.Join(e.Invalid, ", ")))
	}
	if len(parts) == 0 {
		return "configuration error"
	}
	return strings.Join(parts, "; ")
}

// Load parses configuration from the provided environment lookup. A nil
// lookup reads the process environment. Defaults are applied for optional
// fields; every missing or invalid variable is accumulated into a single
// *ConfigError.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Config{
		HTTPAddr:       ":8080",
		StoreDriver:    DriverSQLite,
		SQLiteDSN:      DefaultSQLiteDSN,
		DayStart:       8 * 60,
		DayEnd:         17 * 60,
		SlotMinutes:    30,
		CacheTTL:       5 * time.Second,
		LockTimeout:    3 * time.Second,
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if addr := strings.TrimSpace(getenv("MEETINGROOM_HTTP_ADDR")); addr != "" {
		cfg.HTTPAddr = addr
	}

	if driver := strings.TrimSpace(getenv("MEETINGROOM_STORE_DRIVER")); driver != "" {
		cfg.StoreDriver = strings.ToLower(driver)
	}

	if dsn := strings.TrimSpace(getenv("MEETINGROOM_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.PostgresDSN = strings.TrimSpace(getenv("MEETINGROOM_POSTGRES_DSN"))
	if cfg.StoreDriver == DriverPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "MEETINGROOM_POSTGRES_DSN")
	}

	cfg.RoomsFile = strings.TrimSpace(getenv("MEETINGROOM_ROOMS_FILE"))

	if secret := strings.TrimSpace(getenv("MEETINGROOM_IDENTITY_SECRET")); secret == "" {
		missing = append(missing, "MEETINGROOM_IDENTITY_SECRET")
	} else {
		cfg.IdentitySecret = secret
	}

	if value := strings.TrimSpace(getenv("MEETINGROOM_DAY_START")); value != "" {
		start, err := booking.ParseTimeOfDay(value)
		if err != nil {
			invalid = append(invalid, "MEETINGROOM_DAY_START")
		} else {
			cfg.DayStart = start
		}
	}

	if value := strings.TrimSpace(getenv("MEETINGROOM_DAY_END")); value != "" {
		end, err := booking.ParseTimeOfDay(value)
		if err != nil {
			invalid = append(invalid, "MEETINGROOM_DAY_END")
		} else {
			cfg.DayEnd = end
		}
	}

	if value := strings.TrimSpace(getenv("MEETINGROOM_SLOT_MINUTES")); value != "" {
		minutes, err := strconv.Atoi(value)
		if err != nil {
			invalid = append(invalid, "MEETINGROOM_SLOT_MINUTES")
		} else {
			cfg.SlotMinutes = minutes
		}
	}

	if value := strings.TrimSpace(getenv("MEETINGROOM_CACHE_TTL")); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MEETINGROOM_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if value := strings.TrimSpace(getenv("MEETINGROOM_LOCK_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "MEETINGROOM_LOCK_TIMEOUT")
		} else {
			cfg.LockTimeout = timeout
		}
	}

	cfg.TelegramToken = strings.TrimSpace(getenv("MEETINGROOM_TELEGRAM_TOKEN"))

	if value := strings.TrimSpace(getenv("MEETINGROOM_TELEGRAM_CHAT_ID")); value != "" {
		chatID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			invalid = append(invalid, "MEETINGROOM_TELEGRAM_CHAT_ID")
		} else {
			cfg.TelegramChatID = chatID
		}
	}

	if value := strings.TrimSpace(getenv("MEETINGROOM_ALLOWED_ORIGINS")); value != "" {
		cfg.AllowedOrigins = splitOrigins(value)
	}

	if level := strings.TrimSpace(getenv("MEETINGROOM_LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	invalid = append(invalid, validateSemantics(cfg, missing)...)

	if len(missing) > 0 || len(invalid) > 0 {
		return Config{}, &ConfigError{Missing: missing, Invalid: invalid}
	}

	return cfg, nil
}

// validateSemantics runs the struct tags over the parsed values and maps
// each failed field back to its environment variable name. Required-style
// failures already captured in missing are not reported twice.
func validateSemantics(cfg Config, missing []string) []string {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}
		return field.Name
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("validation: %v", err)}
	}

	var invalid []string
	for _, fe := range fieldErrs {
		name := fe.Field()
		if slices.Contains(missing, name) {
			continue
		}
		if !slices.Contains(invalid, name) {
			invalid = append(invalid, name)
		}
	}
	return invalid
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
