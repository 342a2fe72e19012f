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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zalando/go-keyring"

	"pathway/internal/vector"
)

type memSecrets map[string]string

func (m memSecrets) Get(service, key string) (string, error) {
	v, ok := m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (m memSecrets) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}

func (m memSecrets) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

// isolate points the config dir at a temp dir and swaps the keyring for a map.
func isolate(t *testing.T) (string, memSecrets) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	for _, env := range envByKey {
		t.Setenv(env, "")
	}
	secrets := memSecrets{}
	old := secretStore
	secretStore = secrets
	t.Cleanup(func() { secretStore = old })
	return dir, secrets
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
	if secret != "" {
		t.Fatalf("secret = %q, want empty", secret)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir, secrets := isolate(t)
	cfg := Defaults()
	cfg.Iterator.ConicEvaluation = "quadratics"
	cfg.Iterator.Tolerance = 0.05
	cfg.SVG.Document = false
	cfg.Catalog.Driver = "pgx"
	cfg.Catalog.DSN = "postgres://pathway@db.test/shapes"
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if secrets[keyringService+"/"+keyringPassword] != "s3cret" {
		t.Fatalf("password not stored in keyring: %v", secrets)
	}
	got, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if secret != "s3cret" {
		t.Fatalf("secret = %q, want s3cret", secret)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir, _ := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("iterator: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir, _ := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("iterator:\n  tolerance: 0.1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Defaults()
	want.Iterator.Tolerance = 0.1
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("partial file mismatch (-want +got):\n%s", diff)
	}
	if !cfg.SVG.Document {
		t.Fatalf("svg.document must stay on when the file has no svg section")
	}
}

func TestLoadFileIgnoresEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTolerance, "0.5")
	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Iterator.Tolerance != vector.DefaultTolerance {
		t.Fatalf("LoadFile picked up env override: %v", cfg.Iterator.Tolerance)
	}
}

func TestEnvOverridesIterator(t *testing.T) {
	isolate(t)
	t.Setenv(EnvConicEvaluation, "Quadratics")
	t.Setenv(EnvTolerance, "0.01")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Iterator.ConicEvaluation != "quadratics" || cfg.Iterator.Tolerance != 0.01 {
		t.Fatalf("iterator overrides not applied: %#v", cfg.Iterator)
	}
	it, err := vector.NewIterator(vector.NewPath(vector.NonZero), cfg.Iterator.Options()...)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()
	if it.ConicEvaluation() != vector.AsQuadratics || it.Tolerance() != 0.01 {
		t.Fatalf("options not applied: %v %v", it.ConicEvaluation(), it.Tolerance())
	}
}

func TestEnvOverridesInvalidAreRejected(t *testing.T) {
	isolate(t)
	t.Setenv(EnvConicEvaluation, "cubic")
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected validation error for conic evaluation")
	}
	t.Setenv(EnvConicEvaluation, "")
	t.Setenv(EnvCatalogDriver, "mysql")
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected validation error for catalog driver")
	}
}

func TestMergeKeepsDocumentFlag(t *testing.T) {
	dst := Defaults()
	src := AppConfig{SVG: SVGConfig{Document: false}}
	mergeInto(&dst, &src)
	if dst.SVG.Document {
		t.Fatalf("SVG.Document was not merged from file config")
	}
	if dst.Iterator.Tolerance != vector.DefaultTolerance {
		t.Fatalf("zero tolerance in file overwrote default: %v", dst.Iterator.Tolerance)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/pwy.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/pwy.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	opts := dst.Logging.Options()
	if opts.Level != "debug" || !opts.AddSource || opts.File != "/tmp/pwy.log" {
		t.Fatalf("logging options not mapped: %#v", opts)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/var/tmp/pwy.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/var/tmp/pwy.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	isolate(t)
	if _, ok := EnvOverrideFor("svg.document"); ok {
		t.Fatalf("svg.document reported as overridden")
	}
	t.Setenv(EnvSVGDocument, "no")
	env, ok := EnvOverrideFor("svg.document")
	if !ok || env != EnvSVGDocument {
		t.Fatalf("EnvOverrideFor = %q,%v", env, ok)
	}
	if _, ok := EnvOverrideFor("unknown.key"); ok {
		t.Fatalf("unknown key reported as overridden")
	}
}

func TestCatalogDSNDefaultsIntoConfigDir(t *testing.T) {
	dir, _ := isolate(t)
	cfg := Defaults()
	dsn, err := cfg.CatalogDSN()
	if err != nil {
		t.Fatalf("CatalogDSN: %v", err)
	}
	if want := filepath.Join(dir, "catalog.db"); dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}
	cfg.Catalog.Driver = "pgx"
	if dsn, _ := cfg.CatalogDSN(); dsn != "" {
		t.Fatalf("pgx without dsn should stay empty, got %q", dsn)
	}
}

func TestSetValueEveryKey(t *testing.T) {
	values := map[string]string{
		"iterator.conic_evaluation": "quadratics",
		"iterator.tolerance":        "0.05",
		"svg.document":              "false",
		"catalog.driver":            "pgx",
		"catalog.dsn":               "postgres://u@db/paths",
		"logging.level":             "debug",
		"logging.format":            "json",
		"logging.source":            "true",
		"logging.file":              "/tmp/pathway.log",
		"logging.color":             "never",
	}
	if diff := cmp.Diff(len(values), len(Keys())); diff != "" {
		t.Fatalf("key count mismatch (-want +got):\n%s", diff)
	}
	cfg := Defaults()
	for _, k := range Keys() {
		if err := cfg.Set(k, values[k]); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
		got, err := cfg.Value(k)
		if err != nil {
			t.Fatalf("Value(%s): %v", k, err)
		}
		if got != values[k] {
			t.Fatalf("Value(%s) = %q, want %q", k, got, values[k])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Set("iterator.nope", "1"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("err = %v, want ErrUnknownKey", err)
	}
	if _, err := cfg.Value("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("err = %v, want ErrUnknownKey", err)
	}
	if err := cfg.Set("iterator.tolerance", "small"); err == nil {
		t.Fatalf("expected float parse error")
	}
	if err := cfg.Set("svg.document", "maybe"); err == nil {
		t.Fatalf("expected bool parse error")
	}
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Fatalf("failed Set changed config (-want +got):\n%s", diff)
	}
}

func TestClearSecret(t *testing.T) {
	_, secrets := isolate(t)
	if err := Save(Defaults(), "s3cret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, secret, _ := Load(); secret != "s3cret" {
		t.Fatalf("secret = %q", secret)
	}
	if err := ClearSecret(); err != nil {
		t.Fatalf("ClearSecret: %v", err)
	}
	if len(secrets) != 0 {
		t.Fatalf("keyring not cleared: %v", secrets)
	}
	if err := ClearSecret(); err != nil {
		t.Fatalf("second ClearSecret: %v", err)
	}
}
