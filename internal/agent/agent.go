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

// Package agent contains the campaign's AI workers. Each worker frames a
// single-shot language-model call with a role and a goal; there is no
// conversation memory between invocations and no tool-use loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/reliefops/campaigner/internal/model"
)

const defaultInvokeTimeout = 60 * time.Second

// Invocation describes one role/goal-framed model call.
type Invocation struct {
	// Role is who the model should act as, e.g. "a relief campaign writer".
	Role string

	// Goal is the outcome the role is working toward.
	Goal string

	// Task is the concrete instruction for this call.
	Task string

	// Context is optional supporting material appended to the task.
	Context string
}

// Runtime executes single-shot agent invocations against a language
// model. A Runtime with a nil model reports every invocation as
// unavailable, which lets the service start without credentials and
// degrade at campaign time the same way it would for a network failure.
type Runtime struct {
	llm     model.LLM
	timeout time.Duration
	log     *zap.Logger
}

// NewRuntime creates a Runtime. llm may be nil. A timeout of zero uses
// the default of one minute per invocation.
func NewRuntime(llm model.LLM, timeout time.Duration, lg *zap.Logger) *Runtime {
	if lg == nil {
		lg = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}
	return &Runtime{llm: llm, timeout: timeout, log: lg}
}

// Invoke performs one model call and returns its raw text output.
//
// An unreachable or misconfigured backend, and a timeout, surface as
// errors wrapping [model.ErrUnavailable]. A completion the backend
// produced but that carries no text surfaces as
// [model.ErrEmptyCompletion]; callers treat that as degradable output,
// not as an outage.
func (r *Runtime) Invoke(ctx context.Context, inv Invocation) (string, error) {
	if r.llm == nil {
		return "", fmt.Errorf("%w: no language model configured", model.ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	system := fmt.Sprintf("You are %s. Your goal: %s", inv.Role, inv.Goal)
	prompt := inv.Task
	if inv.Context != "" {
		prompt = prompt + "\n\nContext:\n" + inv.Context
	}

	start := time.Now()
	out, err := r.llm.Generate(ctx, &model.Request{System: system, Prompt: prompt})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: invocation timed out after %s", model.ErrUnavailable, r.timeout)
		}
		r.log.Warn("agent invocation failed",
			zap.String("role", inv.Role),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	r.log.Debug("agent invocation complete",
		zap.String("role", inv.Role),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("output_len", len(out)))
	return out, nil
}
