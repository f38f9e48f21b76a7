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

// Package model defines the language-model backend contract used by the
// agent runtime. Backends live in subpackages; callers depend only on LLM.
package model

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the backend cannot be reached or is
	// misconfigured (missing credential, network failure, timeout).
	// It is the only model error that aborts a campaign; callers map it
	// to a service-unavailable response rather than an internal error.
	ErrUnavailable = errors.New("language model unavailable")

	// ErrEmptyCompletion indicates the backend answered but produced no
	// usable text. Unlike ErrUnavailable it is never pipeline-fatal.
	ErrEmptyCompletion = errors.New("model returned an empty completion")
)

// Request is a single-shot text-generation request. There is no
// conversation history: each request stands alone.
type Request struct {
	// System is the system instruction framing the call.
	System string

	// Prompt is the user-turn text.
	Prompt string

	// Temperature overrides the backend default when non-nil.
	Temperature *float32

	// MaxOutputTokens caps the completion length when positive.
	MaxOutputTokens int32
}

// LLM is a single-call text-completion backend.
type LLM interface {
	// Name returns the backend's model name.
	Name() string

	// Generate performs one blocking completion call. Transport-level
	// failures are reported as errors wrapping ErrUnavailable; an empty
	// completion is reported as ErrEmptyCompletion.
	Generate(ctx context.Context, req *Request) (string, error)
}
