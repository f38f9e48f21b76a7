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

package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/reliefops/campaigner/internal/agent"
	"github.com/reliefops/campaigner/internal/config"
	"github.com/reliefops/campaigner/internal/store"
)

const gatewayTimeout = 15 * time.Second

// WhatsAppAdapter delivers messages through a third-party messaging
// gateway's HTTP API.
type WhatsAppAdapter struct {
	cfg    config.WhatsAppConfig
	client *http.Client
	log    *zap.Logger
}

// NewWhatsAppAdapter creates a WhatsAppAdapter. client may be nil.
func NewWhatsAppAdapter(cfg config.WhatsAppConfig, client *http.Client, lg *zap.Logger) *WhatsAppAdapter {
	if lg == nil {
		lg = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: gatewayTimeout}
	}
	return &WhatsAppAdapter{cfg: cfg, client: client, log: lg}
}

func (a *WhatsAppAdapter) Channel() agent.Channel { return agent.ChannelWhatsApp }

func (a *WhatsAppAdapter) Configured() bool { return a.cfg.Configured() }

func (a *WhatsAppAdapter) Target(c store.Contact) (string, bool) {
	if c.HasPhone() {
		return *c.Phone, true
	}
	return "", false
}

// Send posts msg to the gateway as a form-encoded request. Any non-2xx
// response is a failure; the gateway's response body, truncated, becomes
// the outcome detail.
func (a *WhatsAppAdapter) Send(ctx context.Context, c store.Contact, msg agent.DraftMessage) (bool, string) {
	phone, ok := a.Target(c)
	if !ok {
		return false, "contact has no phone number"
	}

	form := url.Values{}
	form.Set("token", a.cfg.Token)
	form.Set("from", a.cfg.Sender)
	form.Set("to", phone)
	form.Set("body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Sprintf("build gateway request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("whatsapp delivery failed",
			zap.Uint("contact_id", c.ID),
			zap.Error(err))
		return false, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		detail := fmt.Sprintf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		a.log.Warn("whatsapp delivery rejected",
			zap.Uint("contact_id", c.ID),
			zap.Int("status", resp.StatusCode))
		return false, detail
	}

	a.log.Info("whatsapp message sent", zap.Uint("contact_id", c.ID))
	return true, ""
}
