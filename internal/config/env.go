package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// DefaultConfigDir returns ~/.chatmerge
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".chatmerge"), nil
}

// LoadFromEnv loads configuration from environment variables.
// Parameters:
// - configDir: directory holding .env, the database and the log file (empty for ~/.chatmerge)
// - configFilePath: path to the .env file (empty for <configDir>/.env)
//
// ENV_FILE_PATH overrides both file lookups.
func LoadFromEnv(configDir string, configFilePath string) (*Config, error) {
	cfg := New()

	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	cfg.configDir = configDir

	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	if envFilePath := getEnvString("ENV_FILE_PATH", ""); envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else if err := godotenv.Load(configFilePath); err != nil {
		_ = godotenv.Load() // ./.env is optional
	}

	cfg.Backend = BackendConfig{
		URL:               getEnvString("CHATMERGE_BACKEND_URL", "http://localhost:8420"),
		Token:             getEnvString("CHATMERGE_BACKEND_TOKEN", ""),
		Timeout:           getEnvDuration("CHATMERGE_BACKEND_TIMEOUT", 5*time.Minute),
		MaxRetries:        getEnvInt("CHATMERGE_BACKEND_MAX_RETRIES", 3),
		RequestsPerMinute: getEnvInt("CHATMERGE_BACKEND_REQUESTS_PER_MINUTE", 0),
		BurstLimit:        getEnvInt("CHATMERGE_BACKEND_BURST_LIMIT", 1),
	}

	cfg.Merge = MergeConfig{
		MaxSections:      getEnvInt("CHATMERGE_MERGE_MAX_SECTIONS", 500),
		CombinedLimit:    getEnvInt("CHATMERGE_MERGE_COMBINED_LIMIT", 10),
		AbbreviatedLimit: getEnvInt("CHATMERGE_MERGE_ABBREVIATED_LIMIT", 3),
		ExecuteOnConfirm: getEnvBool("CHATMERGE_MERGE_EXECUTE_ON_CONFIRM", true),
	}

	cfg.Database = DatabaseConfig{
		Path:            getEnvString("CHATMERGE_DB_PATH", filepath.Join(configDir, "chatmerge.db")),
		BusyTimeout:     getEnvInt("CHATMERGE_DB_BUSY_TIMEOUT", 5000),
		JournalMode:     getEnvString("CHATMERGE_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("CHATMERGE_DB_SYNCHRONOUS_MODE", "NORMAL"),
		ForeignKeys:     getEnvBool("CHATMERGE_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("CHATMERGE_DB_CONN_MAX_LIFE", 5*time.Minute),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("CHATMERGE_LOG_LEVEL", "info"),
		Format:     getEnvString("CHATMERGE_LOG_FORMAT", "text"),
		Output:     getEnvString("CHATMERGE_LOG_OUTPUT", filepath.Join(configDir, "chatmerge.log")),
		AddSource:  getEnvBool("CHATMERGE_LOG_ADD_SOURCE", true),
		TimeFormat: getTimeFormat(getEnvString("CHATMERGE_LOG_TIME_FORMAT", "RFC3339")),
	}

	return cfg, cfg.Validate()
}
