/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: a YAML file in the user config
// directory, overlaid with NAVALCARDS_* environment variables. The backend
// bearer token is kept in the OS keyring, never in the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type BackendConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// EditorConfig holds canvas interaction preferences.
type EditorConfig struct {
	GridSize          int     `yaml:"grid_size"`
	GridSnap          bool    `yaml:"grid_snap"`
	SnapTolerance     float64 `yaml:"snap_tolerance"`
	SmartGuides       bool    `yaml:"smart_guides"`
	SnapToCanvas      bool    `yaml:"snap_to_canvas"`
	HistoryMaxSize    int     `yaml:"history_max_size"`
	HistoryDebounceMs int     `yaml:"history_debounce_ms"`
}

type StorageConfig struct {
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	// KeepVersions bounds the saved layout versions per unit; 0 keeps all.
	KeepVersions int `yaml:"keep_versions"`
	// Templates selects where user templates and template states live:
	// "local" (SQLite) or "remote" (backend REST API). A PostgresDSN wins over both.
	Templates string `yaml:"templates"`
}

type ExportConfig struct {
	FontDir string  `yaml:"font_dir"`
	Scale   float64 `yaml:"scale"`
	// UploadsDir is a local mirror of the backend uploads folder, tried
	// before downloading images.
	UploadsDir string `yaml:"uploads_dir"`
	OutDir     string `yaml:"out_dir"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Locale         string `yaml:"locale"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the on-disk configuration document.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Editor        EditorConfig  `yaml:"editor"`
	Storage       StorageConfig `yaml:"storage"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

const currentConfigVersion = 1

// Template store selectors for StorageConfig.Templates.
const (
	TemplatesLocal  = "local"
	TemplatesRemote = "remote"
)

func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: currentConfigVersion,
		General:       GeneralConfig{Locale: "it"},
		Backend:       BackendConfig{BaseURL: "http://localhost:8000", TimeoutMs: 15000},
		Editor: EditorConfig{
			GridSize:          10,
			GridSnap:          true,
			SnapTolerance:     5,
			SmartGuides:       true,
			SnapToCanvas:      true,
			HistoryMaxSize:    50,
			HistoryDebounceMs: 500,
		},
		Storage: StorageConfig{KeepVersions: 20, Templates: TemplatesLocal},
		Export:  ExportConfig{Scale: 1},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "NAVALCARDS_CONFIG"
	EnvBackendURL       = "NAVALCARDS_BACKEND_URL"
	EnvBackendTimeoutMs = "NAVALCARDS_BACKEND_TIMEOUT_MS"
	EnvTelemetryOptIn   = "NAVALCARDS_TELEMETRY_OPT_IN"
	EnvGridSize         = "NAVALCARDS_GRID_SIZE"
	EnvGridSnap         = "NAVALCARDS_GRID_SNAP"
	EnvSQLitePath       = "NAVALCARDS_SQLITE_PATH"
	EnvPostgresDSN      = "NAVALCARDS_PG_DSN"
	EnvLogLevel         = "NAVALCARDS_LOG_LEVEL"
	EnvLogFormat        = "NAVALCARDS_LOG_FORMAT"
	EnvLogSource        = "NAVALCARDS_LOG_SOURCE"
	EnvLogFile          = "NAVALCARDS_LOG_FILE"
)

// ConfigPath returns the per-user config file path, honoring NAVALCARDS_CONFIG.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, "navalcards", "config.yaml"), nil
}

// DataDir returns the per-user directory for the local database, autosaves and crash reports.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	return filepath.Join(base, "navalcards", "data"), nil
}

// Load reads the config at ConfigPath and returns it with the keyring token.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, "", err
	}
	tok, _ := Token()
	return cfg, tok, nil
}

// LoadFile reads path over the defaults and applies env overrides.
// A missing file is not an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		// Absent keys keep their default because we decode over cfg.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg to ConfigPath and stores token in the keyring when non-empty.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := SaveFile(path, cfg); err != nil {
		return err
	}
	if token != "" {
		return SetToken(token)
	}
	return nil
}

func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// normalize repairs values a hand-edited file may have broken.
func normalize(cfg *AppConfig) {
	def := Defaults()
	if cfg.ConfigVersion == 0 {
		cfg.ConfigVersion = currentConfigVersion
	}
	if cfg.Backend.TimeoutMs <= 0 {
		cfg.Backend.TimeoutMs = def.Backend.TimeoutMs
	}
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if cfg.Editor.GridSize <= 0 {
		cfg.Editor.GridSize = def.Editor.GridSize
	}
	if cfg.Editor.SnapTolerance < 0 {
		cfg.Editor.SnapTolerance = def.Editor.SnapTolerance
	}
	if cfg.Editor.HistoryMaxSize <= 0 {
		cfg.Editor.HistoryMaxSize = def.Editor.HistoryMaxSize
	}
	if cfg.Editor.HistoryDebounceMs < 0 {
		cfg.Editor.HistoryDebounceMs = 0
	}
	if cfg.Export.Scale <= 0 {
		cfg.Export.Scale = 1
	}
	switch t := strings.ToLower(strings.TrimSpace(cfg.Storage.Templates)); t {
	case TemplatesLocal, TemplatesRemote:
		cfg.Storage.Templates = t
	default:
		cfg.Storage.Templates = TemplatesLocal
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := env(EnvBackendURL); v != "" {
		cfg.Backend.BaseURL = strings.TrimRight(v, "/")
	}
	if n, ok := envInt(EnvBackendTimeoutMs); ok && n > 0 {
		cfg.Backend.TimeoutMs = n
	}
	if b, ok := envBool(EnvTelemetryOptIn); ok {
		cfg.General.TelemetryOptIn = b
	}
	if n, ok := envInt(EnvGridSize); ok && n > 0 {
		cfg.Editor.GridSize = n
	}
	if b, ok := envBool(EnvGridSnap); ok {
		cfg.Editor.GridSnap = b
	}
	if v := env(EnvSQLitePath); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := env(EnvPostgresDSN); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if b, ok := envBool(EnvLogSource); ok {
		cfg.Logging.Source = b
	}
	if v := env(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}

var overridable = map[string]string{
	"backend.base_url":         EnvBackendURL,
	"backend.timeout_ms":       EnvBackendTimeoutMs,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"editor.grid_size":         EnvGridSize,
	"editor.grid_snap":         EnvGridSnap,
	"storage.sqlite_path":      EnvSQLitePath,
	"storage.postgres_dsn":     EnvPostgresDSN,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor reports the env var currently overriding a dotted config key.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := overridable[key]
	if !ok || env(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// HistoryDebounce returns the history coalescing window.
func (e EditorConfig) HistoryDebounce() time.Duration {
	return time.Duration(e.HistoryDebounceMs) * time.Millisecond
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func envInt(key string) (int, bool) {
	v := env(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(env(key)) {
	case "":
		return false, false
	case "1", "true", "on", "yes":
		return true, true
	default:
		return false, true
	}
}
