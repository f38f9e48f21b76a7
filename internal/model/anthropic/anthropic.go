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

// Package anthropic provides a [model.LLM] backed by Anthropic Claude,
// either through the direct API or through Google Cloud Vertex AI.
package anthropic

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"

	"github.com/reliefops/campaigner/internal/model"
)

const defaultMaxTokens = 4096

type claudeModel struct {
	client           anthropic.Client
	name             anthropic.Model
	variant          string
	defaultMaxTokens int
}

// NewModel returns a [model.LLM], backed by Anthropic Claude.
//
// It creates an Anthropic client based on the provided configuration.
// If Variant is not specified, it checks the ANTHROPIC_USE_VERTEX
// environment variable.
//
// For direct Anthropic API, set APIKey in the config or the
// ANTHROPIC_API_KEY environment variable.
//
// For Vertex AI, set VertexProjectID and VertexRegion in the config or use
// GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_REGION environment variables.
func NewModel(ctx context.Context, modelName anthropic.Model, cfg *Config) (model.LLM, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	variant := cfg.Variant
	if variant == "" {
		variant = GetVariant()
	}

	var client anthropic.Client

	switch variant {
	case VariantVertexAI:
		projectID := cfg.VertexProjectID
		if projectID == "" {
			projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
		}
		if projectID == "" {
			return nil, fmt.Errorf("VertexProjectID is required for Vertex AI (set GOOGLE_CLOUD_PROJECT)")
		}

		region := cfg.VertexRegion
		if region == "" {
			region = os.Getenv("GOOGLE_CLOUD_REGION")
		}
		if region == "" {
			return nil, fmt.Errorf("VertexRegion is required for Vertex AI (set GOOGLE_CLOUD_REGION)")
		}

		client = anthropic.NewClient(
			vertex.WithGoogleAuth(ctx, region, projectID),
		)
	default:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", model.ErrUnavailable)
		}
		client = anthropic.NewClient(option.WithAPIKey(apiKey))
	}

	maxTokens := cfg.DefaultMaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &claudeModel{
		client:           client,
		name:             modelName,
		variant:          variant,
		defaultMaxTokens: maxTokens,
	}, nil
}

// Name returns the model name.
func (m *claudeModel) Name() string {
	return string(m.name)
}

// Generate calls the Claude model once.
func (m *claudeModel) Generate(ctx context.Context, req *model.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     m.name,
		MaxTokens: int64(m.defaultMaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = int64(req.MaxOutputTokens)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}

	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", model.ErrEmptyCompletion
	}
	return out, nil
}
