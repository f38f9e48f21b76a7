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

// Package dispatch delivers drafted campaign messages to contacts over
// the configured outreach channels. Delivery is per-contact best effort:
// an adapter reports an outcome for every contact it is asked about and
// never aborts the campaign.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/reliefops/campaigner/internal/agent"
	"github.com/reliefops/campaigner/internal/store"
)

// Status classifies the outcome of one delivery attempt.
type Status string

const (
	// StatusSent: the channel's transport accepted the message.
	StatusSent Status = "sent"

	// StatusFailed: the transport was tried and rejected the message.
	StatusFailed Status = "failed"

	// StatusSkippedNoTarget: the contact has no address for the channel.
	StatusSkippedNoTarget Status = "skipped_no_target"

	// StatusSkippedConfig: the channel itself is not configured.
	StatusSkippedConfig Status = "skipped_config"
)

// Outcome records what happened to one contact on one channel.
type Outcome struct {
	ContactID uint          `json:"contact_id"`
	Channel   agent.Channel `json:"channel"`
	Status    Status        `json:"status"`
	Detail    string        `json:"detail,omitempty"`
}

// Adapter delivers messages over one channel.
type Adapter interface {
	// Channel names the channel this adapter serves.
	Channel() agent.Channel

	// Configured reports whether the adapter has the credentials and
	// endpoints it needs. An unconfigured adapter is never asked to send.
	Configured() bool

	// Target returns the contact's address on this channel, if any.
	Target(c store.Contact) (string, bool)

	// Send delivers the message to the contact. It reports success and,
	// on failure, a short human-readable detail. Send must not panic and
	// must respect ctx cancellation.
	Send(ctx context.Context, c store.Contact, msg agent.DraftMessage) (bool, string)
}

// Deliver runs one delivery attempt for one contact and classifies the
// result. The config check runs only for contacts that actually have an
// address on the channel, so a contact without an address is always
// reported as skipped_no_target regardless of configuration. The message
// is personalized with the contact's name before it is handed to the
// adapter; the campaign-wide template itself is never mutated.
func Deliver(ctx context.Context, a Adapter, c store.Contact, msg agent.DraftMessage) Outcome {
	out := Outcome{ContactID: c.ID, Channel: a.Channel()}

	if _, ok := a.Target(c); !ok {
		out.Status = StatusSkippedNoTarget
		return out
	}
	if !a.Configured() {
		out.Status = StatusSkippedConfig
		out.Detail = "channel not configured"
		return out
	}

	ok, detail := a.Send(ctx, c, personalize(a.Channel(), c, msg))
	if ok {
		out.Status = StatusSent
	} else {
		out.Status = StatusFailed
		out.Detail = detail
	}
	return out
}

// personalize prefixes the message body with a greeting naming the
// contact: a letter salutation for email, a short-form one for
// messaging. A contact without a name gets the template unchanged.
func personalize(ch agent.Channel, c store.Contact, msg agent.DraftMessage) agent.DraftMessage {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return msg
	}
	if ch == agent.ChannelWhatsApp {
		msg.Body = fmt.Sprintf("Hi %s, %s", name, msg.Body)
	} else {
		msg.Body = fmt.Sprintf("Dear %s,\n\n%s", name, msg.Body)
	}
	return msg
}
