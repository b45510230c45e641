package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Postgres    PostgresConfig    `yaml:"postgres"`
	HTTP        HTTPConfig        `yaml:"http"`
	Tournament  TournamentConfig  `yaml:"tournament"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	R2          R2Config          `yaml:"r2"`
	Log         LogConfig         `yaml:"log"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// HTTPConfig holds the listener and gateway settings.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	GatewayToken   string   `yaml:"gateway_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type TournamentConfig struct {
	DefaultBracketSize int `yaml:"default_bracket_size"`
}

// LeaderboardConfig controls the snapshot job and the tiering it records.
type LeaderboardConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	TierCount        int           `yaml:"tier_count"`
}

// R2Config holds Cloudflare R2 credentials. Archiving is off when incomplete.
type R2Config struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
}

func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text|json
}

// SlogLevel maps the configured level name onto slog; unknown names mean info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":5200",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Tournament:  TournamentConfig{DefaultBracketSize: 32},
		Leaderboard: LeaderboardConfig{SnapshotInterval: 10 * time.Minute, TierCount: 3},
		R2:          R2Config{Prefix: "leaderboard"},
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads the YAML file when present and then applies environment
// overrides. A missing file is not an error; a missing DSN is.
func LoadConfig(filename string) (*Config, error) {
	cfg := defaults()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("GAME_SERVICE_TOKEN"); v != "" {
		cfg.HTTP.GatewayToken = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.HTTP.AllowedOrigins = origins
	}
	if v := os.Getenv("DEFAULT_BRACKET_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_BRACKET_SIZE value: %w", err)
		}
		cfg.Tournament.DefaultBracketSize = n
	}
	if v := os.Getenv("SNAPSHOT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SNAPSHOT_INTERVAL value: %w", err)
		}
		cfg.Leaderboard.SnapshotInterval = d
	}
	if v := os.Getenv("TIER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TIER_COUNT value: %w", err)
		}
		cfg.Leaderboard.TierCount = n
	}
	if v := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); v != "" {
		cfg.R2.AccountID = v
	}
	if v := os.Getenv("R2_ACCESS_KEY_ID"); v != "" {
		cfg.R2.AccessKeyID = v
	}
	if v := os.Getenv("R2_ACCESS_KEY_SECRET"); v != "" {
		cfg.R2.AccessKeySecret = v
	}
	if v := os.Getenv("R2_BUCKET_NAME"); v != "" {
		cfg.R2.Bucket = v
	}
	if v := os.Getenv("R2_PREFIX"); v != "" {
		cfg.R2.Prefix = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	switch c.Tournament.DefaultBracketSize {
	case 2, 4, 8, 16, 32:
	default:
		return fmt.Errorf("default bracket size must be one of 2, 4, 8, 16 or 32, got %d", c.Tournament.DefaultBracketSize)
	}
	for _, o := range c.HTTP.AllowedOrigins {
		if o == "*" {
			return errors.New("allowed origins must be listed explicitly, \"*\" cannot be used with credentials")
		}
	}
	if c.Leaderboard.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot interval must be positive, got %s", c.Leaderboard.SnapshotInterval)
	}
	if c.Leaderboard.TierCount < 1 {
		return fmt.Errorf("tier count must be at least 1, got %d", c.Leaderboard.TierCount)
	}
	return nil
}

// NewLogger builds the process logger from the log settings.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Log.SlogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
