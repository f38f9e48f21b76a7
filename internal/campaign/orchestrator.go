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

package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reliefops/campaigner/internal/agent"
	"github.com/reliefops/campaigner/internal/dispatch"
	"github.com/reliefops/campaigner/internal/research"
	"github.com/reliefops/campaigner/internal/store"
)

// ContactResolver resolves contact ids to stored contacts.
type ContactResolver interface {
	ListByIDs(ctx context.Context, ids []uint) ([]store.Contact, error)
}

// Researcher gathers news coverage for a location.
type Researcher interface {
	Research(ctx context.Context, location string) ([]research.Record, error)
}

// Summarizer condenses research records into a situation summary.
type Summarizer interface {
	Summarize(ctx context.Context, location string, records []research.Record) (string, error)
}

// Drafter writes one outreach message per channel.
type Drafter interface {
	Draft(ctx context.Context, summary string, ch agent.Channel, location, donationLink string) (agent.DraftMessage, error)
}

// MessageVerifier scores a drafted message against the research.
type MessageVerifier interface {
	Verify(ctx context.Context, msg, summary string) agent.VerificationResult
}

// Config assembles an Orchestrator's collaborators.
type Config struct {
	Contacts   ContactResolver
	Researcher Researcher
	Summarizer Summarizer
	Drafter    Drafter

	// Verifier is optional; nil skips the verification stage.
	Verifier MessageVerifier

	// Adapters are the available dispatch channels. A requested channel
	// with no adapter yields skipped_config outcomes.
	Adapters []dispatch.Adapter

	// DonationLink is embedded in every outgoing message.
	DonationLink string
}

// Orchestrator drives the campaign pipeline.
type Orchestrator struct {
	contacts     ContactResolver
	researcher   Researcher
	summarizer   Summarizer
	drafter      Drafter
	verifier     MessageVerifier
	adapters     map[agent.Channel]dispatch.Adapter
	donationLink string
	log          *zap.Logger
}

// New creates an Orchestrator.
func New(cfg Config, lg *zap.Logger) *Orchestrator {
	if lg == nil {
		lg = zap.NewNop()
	}
	adapters := make(map[agent.Channel]dispatch.Adapter, len(cfg.Adapters))
	for _, a := range cfg.Adapters {
		adapters[a.Channel()] = a
	}
	return &Orchestrator{
		contacts:     cfg.Contacts,
		researcher:   cfg.Researcher,
		summarizer:   cfg.Summarizer,
		drafter:      cfg.Drafter,
		verifier:     cfg.Verifier,
		adapters:     adapters,
		donationLink: cfg.DonationLink,
		log:          lg,
	}
}

// Run executes one campaign. The returned Result is always usable; a
// non-nil error is either a request/storage error or a *PipelineError
// when the language model was unavailable during research or drafting.
// In the pipeline-failure case the Result carries the failure details
// and zero dispatch outcomes.
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	channels, _ := req.channels()

	res := &Result{
		CampaignID:           uuid.NewString(),
		FloodLocation:        req.FloodLocation,
		DonationLinkIncluded: o.donationLink,
		ContactsTargetIDs:    req.TargetContactIDs,
	}
	lg := o.log.With(
		zap.String("campaign_id", res.CampaignID),
		zap.String("location", req.FloodLocation))

	// Resolving.
	lg.Info("campaign stage", zap.String("stage", string(StageResolving)))
	contacts, err := o.contacts.ListByIDs(ctx, req.TargetContactIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve contacts: %w", err)
	}
	res.ContactsFoundInDB = len(contacts)

	// Researching. Tool failures are advisory; only the summarizing
	// model being unavailable is fatal.
	lg.Info("campaign stage", zap.String("stage", string(StageResearching)))
	records, rerr := o.researcher.Research(ctx, req.FloodLocation)
	if rerr != nil {
		lg.Warn("research degraded", zap.Error(rerr))
	}
	summary, err := o.summarizer.Summarize(ctx, req.FloodLocation, records)
	if err != nil {
		return o.fail(res, lg, StageResearching, err)
	}
	res.AIResearchSummary = summary

	// Drafting, once per requested channel.
	lg.Info("campaign stage", zap.String("stage", string(StageDrafting)))
	drafts := make(map[agent.Channel]agent.DraftMessage, len(channels))
	for _, ch := range channels {
		msg, err := o.drafter.Draft(ctx, summary, ch, req.FloodLocation, o.donationLink)
		if err != nil {
			return o.fail(res, lg, StageDrafting, err)
		}
		if ch == agent.ChannelEmail {
			msg.Subject = req.subject()
		}
		drafts[ch] = msg
	}
	res.AIMessageTemplateUsed = templateOf(channels, drafts)

	// Verifying is optional and advisory.
	if o.verifier != nil {
		lg.Info("campaign stage", zap.String("stage", string(StageVerifying)))
		vr := o.verifier.Verify(ctx, res.AIMessageTemplateUsed, summary)
		res.AIVerification = &vr
	}

	// Dispatching: contact-list order, channels independent per contact.
	lg.Info("campaign stage", zap.String("stage", string(StageDispatching)),
		zap.Int("contacts", len(contacts)))
	for _, c := range contacts {
		for _, ch := range channels {
			res.Outcomes = append(res.Outcomes, o.deliver(ctx, c, ch, drafts[ch]))
		}
	}
	res.tally()

	res.Status = "completed"
	lg.Info("campaign completed",
		zap.Int("outcomes", len(res.Outcomes)),
		zap.Int("emails_sent", res.EmailsSentSuccessfully))
	return res, nil
}

// deliver routes one (contact, channel) pair through its adapter. A
// requested channel with no registered adapter behaves like an
// unconfigured one.
func (o *Orchestrator) deliver(ctx context.Context, c store.Contact, ch agent.Channel, msg agent.DraftMessage) dispatch.Outcome {
	a, ok := o.adapters[ch]
	if !ok {
		return dispatch.Outcome{
			ContactID: c.ID,
			Channel:   ch,
			Status:    dispatch.StatusSkippedConfig,
			Detail:    "no adapter for channel",
		}
	}
	return dispatch.Deliver(ctx, a, c, msg)
}

// fail finalizes res as a pipeline failure at the given stage.
func (o *Orchestrator) fail(res *Result, lg *zap.Logger, stage Stage, err error) (*Result, error) {
	detail := err.Error()
	res.Status = "failed_" + string(stage)
	res.AIErrorDetails = &detail
	lg.Error("campaign failed",
		zap.String("stage", string(stage)),
		zap.Error(err))
	return res, &PipelineError{Stage: stage, Err: err}
}

// templateOf picks the message body reported as the template used:
// the email draft when present, otherwise the first drafted channel.
func templateOf(channels []agent.Channel, drafts map[agent.Channel]agent.DraftMessage) string {
	if msg, ok := drafts[agent.ChannelEmail]; ok {
		return msg.Body
	}
	for _, ch := range channels {
		if msg, ok := drafts[ch]; ok {
			return msg.Body
		}
	}
	return ""
}
