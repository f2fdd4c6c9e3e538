package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

type Config struct {
	Env string

	API     APIConfig
	Session SessionConfig
	Store   StoreConfig
	Redis   RedisConfig
	Export  ExportConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig tunes the session bootstrap behaviour.
type SessionConfig struct {
	BootstrapTimeout time.Duration
}

// StoreConfig selects where the session credentials are persisted.
type StoreConfig struct {
	Backend string
	FileDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type ExportConfig struct {
	Dir string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 15*time.Second),
	}

	cfg.Session = SessionConfig{
		BootstrapTimeout: parseDuration(v.GetString("SESSION_BOOTSTRAP_TIMEOUT"), 10*time.Second),
	}

	cfg.Store = StoreConfig{
		Backend: v.GetString("SESSION_STORE"),
		FileDir: v.GetString("SESSION_FILE_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Export = ExportConfig{Dir: v.GetString("EXPORT_DIR")}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT", "15s")

	v.SetDefault("SESSION_BOOTSTRAP_TIMEOUT", "10s")
	v.SetDefault("SESSION_STORE", StoreFile)
	v.SetDefault("SESSION_FILE_DIR", defaultSessionDir())

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("EXPORT_DIR", "./exports")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".smadash"
	}
	return filepath.Join(home, ".smadash")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
