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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// VerificationResult is the verifier's judgement of a drafted message.
// Score is nil when the model's answer carried no parseable score; the
// raw answer is always preserved in Rationale.
type VerificationResult struct {
	Score     *int   `json:"score,omitempty"`
	Rationale string `json:"rationale"`
}

// Verifier checks a drafted message against the research it was
// grounded in.
type Verifier struct {
	rt *Runtime
}

// NewVerifier creates a Verifier backed by rt.
func NewVerifier(rt *Runtime) *Verifier {
	return &Verifier{rt: rt}
}

// Verify scores the message's authenticity against the research
// summary on a 0-100 scale. Verification is always best-effort: any
// failure, including an unavailable backend, yields a result whose
// rationale records what went wrong, and a nil error.
func (v *Verifier) Verify(ctx context.Context, msg, summary string) VerificationResult {
	out, err := v.rt.Invoke(ctx, Invocation{
		Role: "a skeptical fact checker for a disaster relief charity",
		Goal: "keep fabricated or misleading claims out of outreach messages",
		Task: "Rate how faithful the message below is to the research context, " +
			"as an authenticity score from 0 to 100, and briefly justify the score. " +
			"Start your answer with \"Score: N\".\n\nMessage:\n" + msg,
		Context: summary,
	})
	if err != nil {
		return VerificationResult{Rationale: fmt.Sprintf("verification unavailable: %v", err)}
	}

	out = strings.TrimSpace(out)
	res := VerificationResult{Rationale: out}
	if score, ok := ParseScore(out); ok {
		res.Score = &score
	}
	return res
}

var (
	// "Score: 85", "authenticity score of 85", "score = 0.85". The
	// trailing boundary keeps a longer run of digits from being
	// truncated into range ("Score: 1000" is no score at all).
	keywordScoreRe = regexp.MustCompile(`(?i)score\D{0,12}(\d{1,3}(?:\.\d+)?)\b`)
	// "85/100" anywhere
	outOfHundredRe = regexp.MustCompile(`\b(\d{1,3})\s*/\s*100\b`)
	// a bare fraction like "0.85"
	fractionRe = regexp.MustCompile(`\b(0\.\d{1,3})\b`)
)

// ParseScore extracts an authenticity score from free-form model
// output. It accepts a number near the word "score", an N/100 form, or
// a bare 0.x fraction; fractions in [0,1] are scaled to 0-100. Values
// over 100 are rejected.
func ParseScore(s string) (int, bool) {
	if m := keywordScoreRe.FindStringSubmatch(s); m != nil {
		if n, ok := normalizeScore(m[1]); ok {
			return n, true
		}
	}
	if m := outOfHundredRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n <= 100 {
			return n, true
		}
	}
	if m := fractionRe.FindStringSubmatch(s); m != nil {
		return normalizeScore(m[1])
	}
	return 0, false
}

func normalizeScore(tok string) (int, bool) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	if strings.Contains(tok, ".") && f <= 1.0 {
		return int(f*100 + 0.5), true
	}
	if f > 100 {
		return 0, false
	}
	return int(f + 0.5), true
}
