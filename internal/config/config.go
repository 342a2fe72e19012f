/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	applog "pathway/internal/log"
	"pathway/internal/vector"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type IteratorConfig struct {
	ConicEvaluation string  `yaml:"conic_evaluation"` // "conic" | "quadratics"
	Tolerance       float32 `yaml:"tolerance"`
}

type SVGConfig struct {
	Document bool `yaml:"document"` // wrap path data in an <svg> envelope
}

type CatalogConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "pgx"
	DSN    string `yaml:"dsn"`
	// The password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
	Color  string `yaml:"color"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Iterator      IteratorConfig `yaml:"iterator"`
	SVG           SVGConfig      `yaml:"svg"`
	Catalog       CatalogConfig  `yaml:"catalog"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Iterator:      IteratorConfig{ConicEvaluation: "conic", Tolerance: vector.DefaultTolerance},
		SVG:           SVGConfig{Document: true},
		Catalog:       CatalogConfig{Driver: "sqlite"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Color: "auto"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir       = "PWY_CONFIG_DIR"
	EnvConicEvaluation = "PWY_CONIC_EVALUATION"
	EnvTolerance       = "PWY_TOLERANCE"
	EnvSVGDocument     = "PWY_SVG_DOCUMENT"
	EnvCatalogDriver   = "PWY_CATALOG_DRIVER"
	EnvCatalogDSN      = "PWY_CATALOG_DSN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = applog.EnvLevel
	EnvLogFormat = applog.EnvFormat
	EnvLogSource = applog.EnvSource
	EnvLogFile   = applog.EnvFile
	EnvLogColor  = applog.EnvColor
)

// Service/keys for OS keyring.
const (
	keyringService  = "pathway"
	keyringPassword = "catalog_password"
)

// secretStore abstracts the keyring, so we can stub in tests.
var secretStore SecretStore = osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore using the OS keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "pathway")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "pathway")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "pathway")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "pathway")
		}
	}
	if base == "" || base == "pathway" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the catalog password from the keyring; it is returned separately and never kept in the struct.
func Load() (AppConfig, string, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, "", err
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	secret, err := secretStore.Get(keyringService, keyringPassword)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		applog.WithOperation(applog.WithComponent("config"), "load").Debug("keyring unavailable", "err", err)
	}
	return cfg, secret, nil
}

// LoadFile returns the defaults with the user config file applied, without
// environment overrides. This is what Save should get back when editing.
func LoadFile() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// keys missing from the file keep their default
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the user config YAML and persists the catalog password into the OS keyring (if non-empty).
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if secret != "" {
		if err := secretStore.Set(keyringService, keyringPassword, secret); err != nil {
			return fmt.Errorf("store catalog password: %w", err)
		}
	}
	return nil
}

// ClearSecret removes the catalog password from the keyring. A missing entry is not an error.
func ClearSecret() error {
	if err := secretStore.Delete(keyringService, keyringPassword); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete catalog password: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside an operation.
func (c AppConfig) Validate() error {
	if _, err := vector.ParseConicEvaluation(c.Iterator.ConicEvaluation); err != nil {
		return fmt.Errorf("iterator.conic_evaluation: %w", err)
	}
	if !(c.Iterator.Tolerance > 0) {
		return fmt.Errorf("iterator.tolerance must be positive, got %v", c.Iterator.Tolerance)
	}
	switch c.Catalog.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("catalog.driver must be sqlite or pgx, got %q", c.Catalog.Driver)
	}
	return nil
}

// Options turns the iterator section into iterator options.
func (c IteratorConfig) Options() []vector.Option {
	mode, _ := vector.ParseConicEvaluation(c.ConicEvaluation)
	return []vector.Option{vector.WithConicEvaluation(mode), vector.WithTolerance(c.Tolerance)}
}

// Options maps the logging section onto logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File, Color: l.Color}
}

// CatalogDSN returns the configured DSN, defaulting the sqlite file into the config directory.
func (c AppConfig) CatalogDSN() (string, error) {
	if c.Catalog.DSN != "" || c.Catalog.Driver != "sqlite" {
		return c.Catalog.DSN, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catalog.db"), nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.Iterator.ConicEvaluation); v != "" {
		dst.Iterator.ConicEvaluation = strings.ToLower(v)
	}
	if src.Iterator.Tolerance != 0 {
		dst.Iterator.Tolerance = src.Iterator.Tolerance
	}
	// booleans: src starts from Defaults, so an absent key is already the default
	dst.SVG.Document = src.SVG.Document
	if v := strings.TrimSpace(src.Catalog.Driver); v != "" {
		dst.Catalog.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Catalog.DSN); v != "" {
		dst.Catalog.DSN = v
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	if strings.TrimSpace(src.Logging.Color) != "" {
		dst.Logging.Color = strings.ToLower(strings.TrimSpace(src.Logging.Color))
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvConicEvaluation)); v != "" {
		cfg.Iterator.ConicEvaluation = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTolerance)); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Iterator.Tolerance = float32(f)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSVGDocument)); v != "" {
		cfg.SVG.Document = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDriver)); v != "" {
		cfg.Catalog.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDSN)); v != "" {
		cfg.Catalog.DSN = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogColor)); v != "" {
		cfg.Logging.Color = strings.ToLower(v)
	}
}

var envByKey = map[string]string{
	"iterator.conic_evaluation": EnvConicEvaluation,
	"iterator.tolerance":        EnvTolerance,
	"svg.document":              EnvSVGDocument,
	"catalog.driver":            EnvCatalogDriver,
	"catalog.dsn":               EnvCatalogDSN,
	"logging.level":             EnvLogLevel,
	"logging.format":            EnvLogFormat,
	"logging.source":            EnvLogSource,
	"logging.file":              EnvLogFile,
	"logging.color":             EnvLogColor,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envByKey[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// ErrUnknownKey is returned for a key outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists the settable keys in dotted form, sorted.
func Keys() []string {
	keys := make([]string, 0, len(envByKey))
	for k := range envByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value formats one setting the way Set accepts it.
func (c AppConfig) Value(key string) (string, error) {
	switch key {
	case "iterator.conic_evaluation":
		return c.Iterator.ConicEvaluation, nil
	case "iterator.tolerance":
		return strconv.FormatFloat(float64(c.Iterator.Tolerance), 'g', -1, 32), nil
	case "svg.document":
		return strconv.FormatBool(c.SVG.Document), nil
	case "catalog.driver":
		return c.Catalog.Driver, nil
	case "catalog.dsn":
		return c.Catalog.DSN, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "logging.source":
		return strconv.FormatBool(c.Logging.Source), nil
	case "logging.file":
		return c.Logging.File, nil
	case "logging.color":
		return c.Logging.Color, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Set parses value into the field named by key. It does not validate the
// whole config; call Validate before saving.
func (c *AppConfig) Set(key, value string) error {
	v := strings.TrimSpace(value)
	switch key {
	case "iterator.conic_evaluation":
		c.Iterator.ConicEvaluation = strings.ToLower(v)
	case "iterator.tolerance":
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Iterator.Tolerance = float32(f)
	case "svg.document":
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.SVG.Document = b
	case "catalog.driver":
		c.Catalog.Driver = strings.ToLower(v)
	case "catalog.dsn":
		c.Catalog.DSN = v
	case "logging.level":
		c.Logging.Level = strings.ToLower(v)
	case "logging.format":
		c.Logging.Format = strings.ToLower(v)
	case "logging.source":
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Logging.Source = b
	case "logging.file":
		c.Logging.File = v
	case "logging.color":
		c.Logging.Color = strings.ToLower(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true, nil
	case "0", "false", "off", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", v)
}
