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
	"strings"
	"testing"
	"time"

	"github.com/reliefops/campaigner/internal/model"
	"github.com/reliefops/campaigner/internal/research"
)

// fakeLLM returns a canned response or error and records the last
// request it saw.
type fakeLLM struct {
	out     string
	err     error
	lastReq *model.Request
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Generate(_ context.Context, req *model.Request) (string, error) {
	f.lastReq = req
	return f.out, f.err
}

func TestInvoke(t *testing.T) {
	llm := &fakeLLM{out: "hello"}
	rt := NewRuntime(llm, time.Second, nil)

	out, err := rt.Invoke(context.Background(), Invocation{
		Role:    "a tester",
		Goal:    "test",
		Task:    "say hello",
		Context: "some context",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if out != "hello" {
		t.Errorf("Invoke() = %q, want %q", out, "hello")
	}
	if !strings.Contains(llm.lastReq.System, "a tester") {
		t.Errorf("system prompt %q missing role", llm.lastReq.System)
	}
	if !strings.Contains(llm.lastReq.Prompt, "some context") {
		t.Errorf("prompt %q missing context", llm.lastReq.Prompt)
	}
}

func TestInvoke_NilModel(t *testing.T) {
	rt := NewRuntime(nil, time.Second, nil)
	_, err := rt.Invoke(context.Background(), Invocation{Task: "anything"})
	if !errors.Is(err, model.ErrUnavailable) {
		t.Fatalf("Invoke() error = %v, want ErrUnavailable", err)
	}
}

func TestInvoke_TimeoutMapsToUnavailable(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	rt := NewRuntime(llm, time.Millisecond, nil)
	_, err := rt.Invoke(context.Background(), Invocation{Task: "slow"})
	if !errors.Is(err, model.ErrUnavailable) {
		t.Fatalf("Invoke() error = %v, want ErrUnavailable", err)
	}
}

func TestDraft(t *testing.T) {
	const link = "https://donate.example.org/flood"

	tests := []struct {
		name     string
		llm      *fakeLLM
		wantBody string
		wantErr  error
	}{
		{
			name:     "model output kept when it carries the link",
			llm:      &fakeLLM{out: "Please give now: " + link},
			wantBody: "Please give now: " + link,
		},
		{
			name:     "link appended when missing",
			llm:      &fakeLLM{out: "Please give now."},
			wantBody: "Please give now.\n\nDonate here: " + link,
		},
		{
			name:     "empty completion degrades to fallback",
			llm:      &fakeLLM{err: model.ErrEmptyCompletion},
			wantBody: FallbackBody("Testville", link),
		},
		{
			name:     "whitespace-only output degrades to fallback",
			llm:      &fakeLLM{out: "   \n  "},
			wantBody: FallbackBody("Testville", link),
		},
		{
			name:    "unavailable backend aborts",
			llm:     &fakeLLM{err: model.ErrUnavailable},
			wantErr: model.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewContentAgent(NewRuntime(tt.llm, time.Second, nil))
			msg, err := a.Draft(context.Background(), "summary", ChannelEmail, "Testville", link)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Draft() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Draft() error = %v", err)
			}
			if msg.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", msg.Body, tt.wantBody)
			}
			if !strings.Contains(msg.Body, link) {
				t.Errorf("Body %q missing donation link", msg.Body)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []research.Record{
		{Title: "a", Text: "rivers rising"},
		{Title: "b", Text: ""},
	}

	t.Run("uses model output", func(t *testing.T) {
		llm := &fakeLLM{out: "Situation is severe."}
		a := NewResearchAgent(NewRuntime(llm, time.Second, nil))
		got, err := a.Summarize(context.Background(), "Testville", records)
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		if got != "Situation is severe." {
			t.Errorf("Summarize() = %q", got)
		}
		if !strings.Contains(llm.lastReq.Prompt, "rivers rising") {
			t.Errorf("prompt %q missing record text", llm.lastReq.Prompt)
		}
	})

	t.Run("no records skips the model", func(t *testing.T) {
		llm := &fakeLLM{err: model.ErrUnavailable}
		a := NewResearchAgent(NewRuntime(llm, time.Second, nil))
		got, err := a.Summarize(context.Background(), "Testville", nil)
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		if !strings.Contains(got, "No recent news coverage") {
			t.Errorf("Summarize() = %q, want no-coverage note", got)
		}
		if llm.lastReq != nil {
			t.Error("model was called despite empty records")
		}
	})

	t.Run("empty completion falls back to raw text", func(t *testing.T) {
		llm := &fakeLLM{err: model.ErrEmptyCompletion}
		a := NewResearchAgent(NewRuntime(llm, time.Second, nil))
		got, err := a.Summarize(context.Background(), "Testville", records)
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		if !strings.Contains(got, "rivers rising") {
			t.Errorf("Summarize() = %q, want raw record text", got)
		}
	})

	t.Run("unavailable backend aborts", func(t *testing.T) {
		llm := &fakeLLM{err: model.ErrUnavailable}
		a := NewResearchAgent(NewRuntime(llm, time.Second, nil))
		_, err := a.Summarize(context.Background(), "Testville", records)
		if !errors.Is(err, model.ErrUnavailable) {
			t.Fatalf("Summarize() error = %v, want ErrUnavailable", err)
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("parses score", func(t *testing.T) {
		llm := &fakeLLM{out: "Score: 85. The message matches the coverage."}
		v := NewVerifier(NewRuntime(llm, time.Second, nil))
		res := v.Verify(context.Background(), "msg", "summary")
		if res.Score == nil || *res.Score != 85 {
			t.Fatalf("Score = %v, want 85", res.Score)
		}
		if res.Rationale != llm.out {
			t.Errorf("Rationale = %q, want raw output", res.Rationale)
		}
	})

	t.Run("unparseable output keeps rationale", func(t *testing.T) {
		llm := &fakeLLM{out: "Looks fine to me."}
		v := NewVerifier(NewRuntime(llm, time.Second, nil))
		res := v.Verify(context.Background(), "msg", "summary")
		if res.Score != nil {
			t.Errorf("Score = %d, want nil", *res.Score)
		}
		if res.Rationale != "Looks fine to me." {
			t.Errorf("Rationale = %q", res.Rationale)
		}
	})

	t.Run("backend failure degrades", func(t *testing.T) {
		llm := &fakeLLM{err: model.ErrUnavailable}
		v := NewVerifier(NewRuntime(llm, time.Second, nil))
		res := v.Verify(context.Background(), "msg", "summary")
		if res.Score != nil {
			t.Errorf("Score = %d, want nil", *res.Score)
		}
		if !strings.Contains(res.Rationale, "verification unavailable") {
			t.Errorf("Rationale = %q", res.Rationale)
		}
	})
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"Score: 85", 85, true},
		{"score = 100", 100, true},
		{"Authenticity score of 7.", 7, true},
		{"I'd give it 90/100 overall.", 90, true},
		{"Score: 0.85", 85, true},
		{"confidence is 0.9", 90, true},
		{"Score: 250", 0, false},
		{"Score: 1000", 0, false},
		{"Score: 100.5", 0, false},
		{"no numbers here", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseScore(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseScore(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
