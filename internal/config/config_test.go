// Copyright 2025 The Campaigner Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:8000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, "127.0.0.1:8000")
	}
	if cfg.Model.Provider != "gemini" {
		t.Errorf("Model.Provider = %q, want %q", cfg.Model.Provider, "gemini")
	}
	if cfg.Research.MaxResults != 5 {
		t.Errorf("Research.MaxResults = %d, want 5", cfg.Research.MaxResults)
	}
	if cfg.Email.Configured() {
		t.Error("Email.Configured() = true for empty config, want false")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
listen_addr: ":9090"
donation_link: https://donate.example.org/flood
model:
  provider: anthropic
  anthropic_api_key: file-key
email:
  sender: relief@example.org
  password: secret
  smtp_server: smtp.example.org
  smtp_port: 465
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.Model.Provider != "anthropic" {
		t.Errorf("Model.Provider = %q, want %q", cfg.Model.Provider, "anthropic")
	}
	if !cfg.Email.Configured() {
		t.Error("Email.Configured() = false, want true")
	}
	// File values must not clobber unrelated defaults.
	if cfg.Research.FeedURL == "" {
		t.Error("Research.FeedURL lost its default")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model:\n  gemini_api_key: from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("EMAIL_SMTP_PORT", "587")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model.GeminiAPIKey != "from-env" {
		t.Errorf("GeminiAPIKey = %q, want %q", cfg.Model.GeminiAPIKey, "from-env")
	}
	if cfg.Email.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.Email.SMTPPort)
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for malformed YAML")
	}
}
