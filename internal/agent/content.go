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

// Channel identifies an outreach medium a message is written for.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// maxContextRunes caps how much research text is handed to the model.
const maxContextRunes = 4000

// DraftMessage is a channel-ready outreach message.
type DraftMessage struct {
	Channel Channel
	Subject string
	Body    string
}

// FallbackBody is the template used when message generation degrades.
// It always carries the donation link, so a campaign never dispatches
// a message without one.
func FallbackBody(location, donationLink string) string {
	return fmt.Sprintf("Default message: Please donate to help flood victims in %s. %s (AI generation failed)", location, donationLink)
}

// ContentAgent writes outreach messages for a flood-relief campaign.
type ContentAgent struct {
	rt *Runtime
}

// NewContentAgent creates a ContentAgent backed by rt.
func NewContentAgent(rt *Runtime) *ContentAgent {
	return &ContentAgent{rt: rt}
}

// Draft writes one message for the given channel, grounded in the
// research summary. The returned message always contains donationLink.
//
// Only an error wrapping [model.ErrUnavailable] is returned; every
// other generation failure, including empty completions, degrades to
// [FallbackBody].
func (a *ContentAgent) Draft(ctx context.Context, summary string, ch Channel, location, donationLink string) (DraftMessage, error) {
	msg := DraftMessage{Channel: ch}

	task := fmt.Sprintf(
		"Write a compassionate, urgent %s message asking for donations for flood relief in %s. "+
			"Keep it short and factual. Do not invent casualty numbers. "+
			"It must include this donation link verbatim: %s",
		channelStyle(ch), location, donationLink)

	body, err := a.rt.Invoke(ctx, Invocation{
		Role:    "a fundraising copywriter for a disaster relief charity",
		Goal:    "move readers to donate to verified flood relief efforts",
		Task:    task,
		Context: truncateRunes(summary, maxContextRunes),
	})
	switch {
	case errors.Is(err, model.ErrUnavailable):
		return msg, err
	case err != nil:
		body = FallbackBody(location, donationLink)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		body = FallbackBody(location, donationLink)
	}
	if !strings.Contains(body, donationLink) {
		body = body + "\n\nDonate here: " + donationLink
	}
	msg.Body = body
	return msg, nil
}

func channelStyle(ch Channel) string {
	if ch == ChannelWhatsApp {
		return "WhatsApp (plain text, under 500 characters, no subject line)"
	}
	return "email"
}

// Summary concatenates the non-empty research texts into one block of
// model context, newest first as the feed returned them.
func Summary(records []research.Record) string {
	var parts []string
	for _, rec := range records {
		if rec.Text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", rec.Title, rec.Text))
	}
	return truncateRunes(strings.Join(parts, "\n\n"), maxContextRunes)
}

func truncateRunes(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}
