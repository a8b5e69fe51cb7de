package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Vote     VoteConfig
	Storage  StorageConfig
	Database DatabaseConfig
	GitHub   GitHubConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type VoteConfig struct {
	// Window is how long a pull request stays open for voting.
	Window        time.Duration
	RatePerSecond int
	RateBurst     int
}

type StorageConfig struct {
	SnapshotPath     string
	SnapshotInterval time.Duration
}

type DatabaseConfig struct {
	Path string
}

type GitHubConfig struct {
	Token               string
	WebhookSecret       string
	APIURL              string
	CollaboratorTimeout time.Duration
}

type LogConfig struct {
	Level string
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
		},
		Vote: VoteConfig{
			Window:        getEnvAsDuration("VOTE_WINDOW", 30*time.Minute),
			RatePerSecond: getEnvAsInt("VOTE_RATE_PER_SECOND", 5),
			RateBurst:     getEnvAsInt("VOTE_RATE_BURST", 10),
		},
		Storage: StorageConfig{
			SnapshotPath:     getEnv("SNAPSHOT_PATH", "data/votes.json"),
			SnapshotInterval: getEnvAsDuration("SNAPSHOT_INTERVAL", time.Minute),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./gitlucky.db"),
		},
		GitHub: GitHubConfig{
			Token:               getEnv("GITHUB_TOKEN", ""),
			WebhookSecret:       getEnv("GITHUB_WEBHOOK_SECRET", ""),
			APIURL:              getEnv("GITHUB_API_URL", ""),
			CollaboratorTimeout: getEnvAsDuration("COLLABORATOR_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return AppConfig.Validate()
}

// Validate rejects settings the orchestrator cannot run with
func (c *Config) Validate() error {
	if c.Vote.Window <= 0 {
		return errors.New("VOTE_WINDOW must be positive")
	}
	if c.Storage.SnapshotPath == "" {
		return errors.New("SNAPSHOT_PATH must not be empty")
	}
	if c.Storage.SnapshotInterval < 0 {
		return errors.New("SNAPSHOT_INTERVAL must not be negative")
	}
	if c.GitHub.CollaboratorTimeout <= 0 {
		return errors.New("COLLABORATOR_TIMEOUT must be positive")
	}
	if c.Vote.RatePerSecond <= 0 || c.Vote.RateBurst <= 0 {
		return errors.New("VOTE_RATE_PER_SECOND and VOTE_RATE_BURST must be positive")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s", "30m")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default: %s", key, defaultValue)
	}
	return defaultValue
}
