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
	"os"
	"path/filepath"
	"testing"
)

// stubTokens keeps keyring access in-memory for tests.
type stubTokens struct {
	values map[string]string
}

func (s *stubTokens) key(service, key string) string { return service + "/" + key }
func (s *stubTokens) Get(service, key string) (string, error) {
	return s.values[s.key(service, key)], nil
}
func (s *stubTokens) Set(service, key, value string) error {
	s.values[s.key(service, key)] = value
	return nil
}
func (s *stubTokens) Delete(service, key string) error {
	delete(s.values, s.key(service, key))
	return nil
}

func withStubEnv(t *testing.T) *stubTokens {
	t.Helper()
	t.Setenv(EnvConfigDir, t.TempDir())
	stub := &stubTokens{values: map[string]string{}}
	old := tokenStore
	tokenStore = stub
	t.Cleanup(func() { tokenStore = old })
	return stub
}

func TestSaveLoadRoundTrip(t *testing.T) {
	stub := withStubEnv(t)
	cfg := Defaults()
	cfg.Backend.BaseURL = "https://curves.example.test"
	cfg.Viewer.PickRadiusPx = 20
	cfg.Logging.Level = "debug"
	if err := Save(cfg, "secret-token"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Backend.BaseURL != cfg.Backend.BaseURL {
		t.Fatalf("Backend.BaseURL = %q, want %q", got.Backend.BaseURL, cfg.Backend.BaseURL)
	}
	if got.Viewer.PickRadiusPx != 20 {
		t.Fatalf("Viewer.PickRadiusPx = %v, want 20", got.Viewer.PickRadiusPx)
	}
	if got.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug", got.Logging.Level)
	}
	if tok != "secret-token" {
		t.Fatalf("token = %q, want secret-token", tok)
	}
	if len(stub.values) != 1 {
		t.Fatalf("expected exactly one keyring entry, got %d", len(stub.values))
	}
}

func TestClearToken(t *testing.T) {
	stub := withStubEnv(t)
	if err := Save(Defaults(), "tok"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken() error: %v", err)
	}
	if len(stub.values) != 0 {
		t.Fatalf("token not removed from keyring")
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	withStubEnv(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("backend.base_url"); !ok || name != EnvBackendURL {
		t.Fatalf("EnvOverrideFor(backend.base_url) = %q, %v", name, ok)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	withStubEnv(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	withStubEnv(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/cvl.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/cvl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestMergeIncludesEnableServer(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.General.EnableServer = true
	mergeInto(&dst, &src)
	if !dst.General.EnableServer {
		t.Fatalf("EnableServer was not merged from file config")
	}
}

func TestMergeIncludesViewer(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Viewer: ViewerConfig{ViewportWidth: 1920, PickRadiusPx: 8}}
	mergeInto(&dst, &src)
	if dst.Viewer.ViewportWidth != 1920 || dst.Viewer.PickRadiusPx != 8 {
		t.Fatalf("viewer fields not merged: %#v", dst.Viewer)
	}
	if dst.Viewer.ViewportHeight != Defaults().Viewer.ViewportHeight {
		t.Fatalf("unset viewer fields must keep defaults: %#v", dst.Viewer)
	}
}

func TestConfigPathHonorsEnvDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	p, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error: %v", err)
	}
	if p != filepath.Join(dir, "config.yaml") {
		t.Fatalf("ConfigPath() = %q", p)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("temp config dir missing: %v", err)
	}
}
