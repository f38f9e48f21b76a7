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

// Package gemini provides a [model.LLM] backed by the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/reliefops/campaigner/internal/model"
)

const defaultMaxOutputTokens = 2048

// Config holds configuration for creating a Gemini model.
type Config struct {
	// APIKey authenticates against the Gemini API. If not provided, it
	// will be read from the GEMINI_API_KEY environment variable.
	APIKey string

	// DefaultMaxOutputTokens caps completions when the request does not
	// set its own limit. Defaults to 2048.
	DefaultMaxOutputTokens int32
}

type geminiModel struct {
	client           *genai.Client
	name             string
	defaultMaxTokens int32
}

// NewModel returns a [model.LLM] backed by the Gemini API.
//
// A missing API key is reported as an error wrapping
// [model.ErrUnavailable] so the caller can start degraded instead of
// crashing, mirroring how the service treats an unreachable backend.
func NewModel(ctx context.Context, modelName string, cfg *Config) (model.LLM, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", model.ErrUnavailable)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %v", model.ErrUnavailable, err)
	}

	maxTokens := cfg.DefaultMaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxOutputTokens
	}

	return &geminiModel{
		client:           client,
		name:             modelName,
		defaultMaxTokens: maxTokens,
	}, nil
}

// Name returns the model name.
func (m *geminiModel) Name() string {
	return m.name
}

// Generate calls the Gemini model once.
func (m *geminiModel) Generate(ctx context.Context, req *model.Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: m.defaultMaxTokens,
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = req.MaxOutputTokens
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		cfg.Temperature = req.Temperature
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.name, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", model.ErrEmptyCompletion
	}
	return text, nil
}
