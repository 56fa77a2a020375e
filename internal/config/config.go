// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package config provides configuration loading for the archivista client.
//
// Configuration is read from ~/.archivista/config.toml, with ARCHIVISTA_*
// environment variables taking precedence over the file and built-in
// defaults filling the rest.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/archivista-ai/archivista/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete archivista client configuration.
type Config struct {
	// API holds the chat/document backend settings.
	API APIConfig `toml:"api"`

	// Auth holds the token service settings.
	Auth AuthConfig `toml:"auth"`

	// Documents holds the document endpoint paths. The backend exposes these
	// under configurable prefixes, so they are settings rather than constants.
	Documents DocumentsConfig `toml:"documents"`

	// UI holds terminal interface settings.
	UI UIConfig `toml:"ui"`
}

// APIConfig contains backend API settings.
type APIConfig struct {
	// BaseURL is the base URL of the chat backend.
	BaseURL string `toml:"base_url"`
	// ThreadDeletePrefix is the path prefix for DELETE thread requests;
	// the thread id is appended verbatim.
	ThreadDeletePrefix string `toml:"thread_delete_prefix"`
	// RequestTimeoutSecs bounds non-streaming requests. Streaming invoke
	// requests are bounded by their context instead.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
}

// AuthConfig contains token service settings.
type AuthConfig struct {
	// BaseURL is the base URL of the GoTrue-style auth service.
	BaseURL string `toml:"base_url"`
	// CredentialsPath overrides the default credentials file location.
	CredentialsPath string `toml:"credentials_path"`
}

// DocumentsConfig contains document endpoint paths, relative to API.BaseURL.
type DocumentsConfig struct {
	// ListPath is the GET path returning the user's documents.
	ListPath string `toml:"list_path"`
	// UploadPath is the POST path accepting a multipart "file" field.
	UploadPath string `toml:"upload_path"`
	// DeletePrefix is the path prefix for DELETE document requests.
	DeletePrefix string `toml:"delete_prefix"`
}

// UIConfig contains terminal interface settings.
type UIConfig struct {
	// Theme is "dark", "light", or "auto".
	Theme string `toml:"theme"`
	// ShowReasoning expands the assistant's reasoning sections by default.
	ShowReasoning bool `toml:"show_reasoning"`
	// CompactSidebar hides thread timestamps in the sidebar.
	CompactSidebar bool `toml:"compact_sidebar"`
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

// Default returns a Config with built-in default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:            "http://localhost:8000",
			ThreadDeletePrefix: "/api/chat/threads/",
			RequestTimeoutSecs: 30,
		},
		Auth: AuthConfig{
			BaseURL: "http://localhost:9999",
		},
		Documents: DocumentsConfig{
			ListPath:     "/api/documents",
			UploadPath:   "/api/documents/upload",
			DeletePrefix: "/api/documents/",
		},
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// Dir returns the archivista configuration directory (~/.archivista),
// honoring the ARCHIVISTA_HOME override used by tests.
func Dir() (string, error) {
	if dir := os.Getenv("ARCHIVISTA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".archivista"), nil
}

// Path returns the configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration file, applies environment overrides, and
// validates the result. A missing file is not an error; defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration back to the config file atomically.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// applyEnvOverrides applies ARCHIVISTA_* environment variables on top of the
// file values. Environment always wins; this mirrors how the web client read
// its VITE_* build-time variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ARCHIVISTA_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("ARCHIVISTA_AUTH_URL"); v != "" {
		c.Auth.BaseURL = v
	}
	if v := os.Getenv("ARCHIVISTA_THREAD_DELETE_PREFIX"); v != "" {
		c.API.ThreadDeletePrefix = v
	}
	if v := os.Getenv("ARCHIVISTA_DOCUMENT_LIST_PATH"); v != "" {
		c.Documents.ListPath = v
	}
	if v := os.Getenv("ARCHIVISTA_DOCUMENT_UPLOAD_PATH"); v != "" {
		c.Documents.UploadPath = v
	}
	if v := os.Getenv("ARCHIVISTA_DOCUMENT_DELETE_PREFIX"); v != "" {
		c.Documents.DeletePrefix = v
	}
	if v := os.Getenv("ARCHIVISTA_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for values that would break at runtime.
func (c *Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"api.base_url":  c.API.BaseURL,
		"auth.base_url": c.Auth.BaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: %q is not an absolute URL", name, raw))
		}
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, fmt.Errorf("ui.theme: %q is not one of dark, light, auto", c.UI.Theme))
	}

	if c.API.RequestTimeoutSecs <= 0 {
		c.API.RequestTimeoutSecs = Default().API.RequestTimeoutSecs
	}

	return errors.Join(errs...)
}

// RequestTimeout returns the non-streaming request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSecs) * time.Second
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
)

// Global returns the process-wide configuration, loading it on first use.
// Load errors fall back to defaults with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})
	return globalConfig
}
