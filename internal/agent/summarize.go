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

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reliefops/campaigner/internal/model"
	"github.com/reliefops/campaigner/internal/research"
)

// ResearchAgent condenses raw news coverage into a short situation
// summary for the drafting stage.
type ResearchAgent struct {
	rt *Runtime
}

// NewResearchAgent creates a ResearchAgent backed by rt.
func NewResearchAgent(rt *Runtime) *ResearchAgent {
	return &ResearchAgent{rt: rt}
}

// Summarize produces a situation summary for the location from the
// collected records.
//
// With no usable record text there is nothing to summarize and no model
// call is made; the returned summary notes the gap. Only an error
// wrapping [model.ErrUnavailable] is returned; any other failure
// degrades to the concatenated raw texts.
func (a *ResearchAgent) Summarize(ctx context.Context, location string, records []research.Record) (string, error) {
	raw := Summary(records)
	if raw == "" {
		return fmt.Sprintf("No recent news coverage found for flooding in %s.", location), nil
	}

	out, err := a.rt.Invoke(ctx, Invocation{
		Role: "a disaster situation analyst",
		Goal: "brief a relief charity on the current flood situation",
		Task: fmt.Sprintf(
			"Summarize the flood situation in %s in at most five sentences, "+
				"based only on the coverage below. State facts, not speculation.",
			location),
		Context: raw,
	})
	switch {
	case errors.Is(err, model.ErrUnavailable):
		return "", err
	case err != nil:
		return raw, nil
	}

	if out = strings.TrimSpace(out); out == "" {
		return raw, nil
	}
	return out, nil
}
