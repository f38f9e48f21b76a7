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

// Package config holds the process-wide configuration for the campaign
// service. Configuration is loaded once at startup from an optional YAML
// file plus environment-variable overrides, and passed explicitly into
// constructors. Nothing below the entry point reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration value.
type Config struct {
	// ListenAddr is the address the HTTP API binds to.
	ListenAddr string `yaml:"listen_addr"`

	// DatabasePath is the SQLite file holding the contact store.
	DatabasePath string `yaml:"database_path"`

	// DonationLink is substituted into every outgoing appeal.
	DonationLink string `yaml:"donation_link"`

	Model    ModelConfig    `yaml:"model"`
	Research ResearchConfig `yaml:"research"`
	Email    EmailConfig    `yaml:"email"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
}

// ModelConfig selects and configures the language-model backend.
type ModelConfig struct {
	// Provider is "gemini" or "anthropic".
	Provider string `yaml:"provider"`

	// GeminiAPIKey authenticates against the Gemini API.
	// Overridden by GEMINI_API_KEY.
	GeminiAPIKey string `yaml:"gemini_api_key"`

	// GeminiModel names the Gemini model, e.g. "gemini-2.0-flash".
	GeminiModel string `yaml:"gemini_model"`

	// AnthropicAPIKey authenticates against the Anthropic API.
	// Overridden by ANTHROPIC_API_KEY.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// AnthropicModel names the Claude model.
	AnthropicModel string `yaml:"anthropic_model"`

	// TimeoutSeconds bounds a single model invocation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ResearchConfig configures the news research tool.
type ResearchConfig struct {
	// FeedURL is the news search feed endpoint.
	FeedURL string `yaml:"feed_url"`

	// MaxResults caps how many result links are fetched per campaign.
	MaxResults int `yaml:"max_results"`

	// TimeoutSeconds bounds each individual search or page fetch.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// EmailConfig configures the SMTP dispatch adapter. The adapter reports
// skipped_config for every contact unless all four fields are present.
type EmailConfig struct {
	Sender     string `yaml:"sender"`
	Password   string `yaml:"password"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
}

// Configured reports whether the email adapter has everything it needs.
func (c EmailConfig) Configured() bool {
	return c.Sender != "" && c.Password != "" && c.SMTPServer != "" && c.SMTPPort != 0
}

// WhatsAppConfig configures the messaging-gateway dispatch adapter.
type WhatsAppConfig struct {
	// GatewayURL is the third-party gateway's message endpoint.
	GatewayURL string `yaml:"gateway_url"`

	// Token authenticates against the gateway.
	Token string `yaml:"token"`

	// Sender is the sending handle registered with the gateway.
	Sender string `yaml:"sender"`
}

// Configured reports whether the messaging adapter has everything it needs.
func (c WhatsAppConfig) Configured() bool {
	return c.GatewayURL != "" && c.Token != "" && c.Sender != ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8000",
		DatabasePath: "relief_campaign.db",
		DonationLink: "https://www.example-relief-fund.org/donate/flood-support",
		Model: ModelConfig{
			Provider:       "gemini",
			GeminiModel:    "gemini-2.0-flash",
			AnthropicModel: "claude-sonnet-4-20250514",
			TimeoutSeconds: 60,
		},
		Research: ResearchConfig{
			FeedURL:        "https://news.google.com/rss/search",
			MaxResults:     5,
			TimeoutSeconds: 10,
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// environment-variable overrides, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers environment variables over the loaded values. The
// variable names match the original deployment's .env contract.
func (c *Config) applyEnv() {
	setString(&c.ListenAddr, "CAMPAIGNER_LISTEN_ADDR")
	setString(&c.DatabasePath, "CAMPAIGNER_DATABASE_PATH")
	setString(&c.DonationLink, "DONATION_LINK")

	setString(&c.Model.Provider, "MODEL_PROVIDER")
	setString(&c.Model.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Model.GeminiModel, "GEMINI_MODEL")
	setString(&c.Model.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.Model.AnthropicModel, "ANTHROPIC_MODEL")

	setString(&c.Email.Sender, "EMAIL_SENDER")
	setString(&c.Email.Password, "EMAIL_PASSWORD")
	setString(&c.Email.SMTPServer, "EMAIL_SMTP_SERVER")
	setInt(&c.Email.SMTPPort, "EMAIL_SMTP_PORT")

	setString(&c.WhatsApp.GatewayURL, "WHATSAPP_GATEWAY_URL")
	setString(&c.WhatsApp.Token, "WHATSAPP_TOKEN")
	setString(&c.WhatsApp.Sender, "WHATSAPP_SENDER")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
