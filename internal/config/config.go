package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env               string        `mapstructure:"ENV"`
	Port              string        `mapstructure:"PORT"`
	StoreURL          string        `mapstructure:"STORE_URL"`
	StoreKey          string        `mapstructure:"STORE_KEY"`
	CORSAllowed       string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	Timezone          string        `mapstructure:"TIMEZONE"`
	NeedsUpdateDays   int           `mapstructure:"NEEDS_UPDATE_DAYS"`
	OverdueDays       int           `mapstructure:"OVERDUE_DAYS"`
	UrgentDays        int           `mapstructure:"URGENT_DAYS"`
	WriteDebounce     time.Duration `mapstructure:"WRITE_DEBOUNCE"`
	ServicerCacheTTL  time.Duration `mapstructure:"SERVICER_CACHE_TTL"`
	ServicerCacheSize int           `mapstructure:"SERVICER_CACHE_SIZE"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_URL", "")
	v.SetDefault("STORE_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("TIMEZONE", "Pacific/Auckland")
	v.SetDefault("NEEDS_UPDATE_DAYS", 3)
	v.SetDefault("OVERDUE_DAYS", 7)
	v.SetDefault("URGENT_DAYS", 2)
	v.SetDefault("WRITE_DEBOUNCE", "500ms")
	v.SetDefault("SERVICER_CACHE_TTL", "10m")
	v.SetDefault("SERVICER_CACHE_SIZE", 256)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DemoMode is true when either store setting is missing. The server then
// serves the bundled sample data read-only instead of refusing to start.
func (c Config) DemoMode() bool {
	return c.StoreURL == "" || c.StoreKey == ""
}

// Location falls back to UTC for an unknown zone name.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
