// Package config provides functionality for managing configuration options
// for the application using environment variables and an optional JSON
// config file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// DefaultDataDirName is the per-user data directory under $HOME.
	DefaultDataDirName = ".turbo-notes"
	// DefaultDocumentFile is the document file name inside the data dir.
	DefaultDocumentFile = "notes_data.enc"
	// DefaultSaltFile is the salt file name inside the data dir.
	DefaultSaltFile = "salt.key"
)

// Options holds the configuration values for the application.
type Options struct {
	// DataDir is the directory holding the document and salt files.
	DataDir string `json:"data_dir"`

	// DocumentPath is the full path of the document file. Derived from
	// DataDir when empty.
	DocumentPath string `json:"document_path"`

	// SaltPath is the full path of the salt file. Derived from DataDir
	// when empty.
	SaltPath string `json:"salt_path"`

	// KeyringService is the service name used in the platform secret store.
	KeyringService string `json:"keyring_service"`

	// KDFIterations is the PBKDF2 iteration count.
	KDFIterations int `json:"kdf_iterations"`

	// LogLevel is the zap log level ("debug", "info", "warn", "error").
	LogLevel string `json:"log_level"`
}

// Parse resolves configuration from defaults, then an optional JSON config
// file (TURBO_NOTES_CONFIG), then individual environment variables. It
// returns a pointer to the Options struct containing the resolved values.
func Parse() (*Options, error) {
	options := &Options{
		KeyringService: "turbo-notes",
		KDFIterations:  100_000,
		LogLevel:       "info",
	}

	if configPath := os.Getenv("TURBO_NOTES_CONFIG"); configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, options); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if dataDir := os.Getenv("TURBO_NOTES_DATA_DIR"); dataDir != "" {
		options.DataDir = dataDir
	}
	if service := os.Getenv("TURBO_NOTES_KEYRING_SERVICE"); service != "" {
		options.KeyringService = service
	}
	if iters := os.Getenv("TURBO_NOTES_KDF_ITERATIONS"); iters != "" {
		n, err := strconv.Atoi(iters)
		if err != nil {
			return nil, fmt.Errorf("parse TURBO_NOTES_KDF_ITERATIONS: %w", err)
		}
		options.KDFIterations = n
	}
	if level := os.Getenv("TURBO_NOTES_LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	if options.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		options.DataDir = filepath.Join(home, DefaultDataDirName)
	}
	if options.DocumentPath == "" {
		options.DocumentPath = filepath.Join(options.DataDir, DefaultDocumentFile)
	}
	if options.SaltPath == "" {
		options.SaltPath = filepath.Join(options.DataDir, DefaultSaltFile)
	}

	return options, nil
}
