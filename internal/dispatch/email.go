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
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/reliefops/campaigner/internal/agent"
	"github.com/reliefops/campaigner/internal/config"
	"github.com/reliefops/campaigner/internal/store"
)

// EmailAdapter delivers messages over SMTP. Port 465 speaks implicit
// TLS; every other port dials plain and upgrades with STARTTLS.
type EmailAdapter struct {
	cfg config.EmailConfig
	log *zap.Logger

	// send is swapped out in tests.
	send func(ctx context.Context, to, subject, body string) error
}

// NewEmailAdapter creates an EmailAdapter. cfg may be incomplete; the
// adapter then reports itself unconfigured and skips every contact.
func NewEmailAdapter(cfg config.EmailConfig, lg *zap.Logger) *EmailAdapter {
	if lg == nil {
		lg = zap.NewNop()
	}
	a := &EmailAdapter{cfg: cfg, log: lg}
	a.send = a.sendSMTP
	return a
}

func (a *EmailAdapter) Channel() agent.Channel { return agent.ChannelEmail }

func (a *EmailAdapter) Configured() bool { return a.cfg.Configured() }

func (a *EmailAdapter) Target(c store.Contact) (string, bool) {
	if c.HasEmail() {
		return *c.Email, true
	}
	return "", false
}

// Send delivers msg to the contact's email address.
func (a *EmailAdapter) Send(ctx context.Context, c store.Contact, msg agent.DraftMessage) (bool, string) {
	to, ok := a.Target(c)
	if !ok {
		return false, "contact has no email address"
	}

	if err := a.send(ctx, to, msg.Subject, msg.Body); err != nil {
		a.log.Warn("email delivery failed",
			zap.Uint("contact_id", c.ID),
			zap.Error(err))
		return false, err.Error()
	}

	a.log.Info("email sent", zap.Uint("contact_id", c.ID))
	return true, ""
}

// sendSMTP performs one SMTP transaction. The ctx deadline, if any,
// bounds the dial; the SMTP conversation itself relies on the server's
// own timeouts.
func (a *EmailAdapter) sendSMTP(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(a.cfg.SMTPServer, strconv.Itoa(a.cfg.SMTPPort))
	auth := smtp.PlainAuth("", a.cfg.Sender, a.cfg.Password, a.cfg.SMTPServer)

	client, err := a.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	defer client.Close()

	if a.cfg.SMTPPort != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsCfg := &tls.Config{ServerName: a.cfg.SMTPServer}
			if err := client.StartTLS(tlsCfg); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(a.cfg.Sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMessage(a.cfg.Sender, to, subject, body)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return client.Quit()
}

// dial opens the SMTP connection, speaking implicit TLS on port 465.
func (a *EmailAdapter) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if a.cfg.SMTPPort == 465 {
		conn = tls.Client(conn, &tls.Config{ServerName: a.cfg.SMTPServer})
	}
	client, err := smtp.NewClient(conn, a.cfg.SMTPServer)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// headerSanitizer strips line breaks from header values. The subject is
// caller-supplied; a CR/LF in it must not terminate the header block.
var headerSanitizer = strings.NewReplacer("\r", "", "\n", " ")

// buildMessage assembles the RFC 5322 payload. Bare newlines in the
// body are normalized to CRLF; header values must stay on one line.
func buildMessage(from, to, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", headerSanitizer.Replace(from))
	fmt.Fprintf(&sb, "To: %s\r\n", headerSanitizer.Replace(to))
	fmt.Fprintf(&sb, "Subject: %s\r\n", headerSanitizer.Replace(subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
