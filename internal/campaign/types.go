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

// Package campaign runs the outreach pipeline: resolve contacts,
// research the disaster, draft and verify a message, and dispatch it
// over the requested channels. One Run produces one Result.
package campaign

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reliefops/campaigner/internal/agent"
	"github.com/reliefops/campaigner/internal/dispatch"
)

// defaultSubjectTemplate is used when a trigger request carries no
// subject. {location} is substituted with the flood location.
const defaultSubjectTemplate = "Urgent: Support Needed for {location} Flood Relief"

// Request triggers one campaign run.
type Request struct {
	// FloodLocation is the disaster location being researched.
	FloodLocation string `json:"flood_location"`

	// TargetContactIDs selects the contacts to reach. Unknown ids are
	// silently excluded and reflected in the result's found count.
	TargetContactIDs []uint `json:"target_contact_ids"`

	// Channels selects the outreach channels: "email", "whatsapp" or
	// "both". Empty means email.
	Channels string `json:"channels"`

	// EmailSubject is an optional subject template; a {location}
	// placeholder is substituted.
	EmailSubject string `json:"email_subject"`
}

// Validate checks the request is runnable.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.FloodLocation) == "" {
		return errors.New("flood_location is required")
	}
	if len(r.TargetContactIDs) == 0 {
		return errors.New("target_contact_ids must not be empty")
	}
	if _, err := r.channels(); err != nil {
		return err
	}
	return nil
}

// channels expands the channel selection in a fixed order.
func (r *Request) channels() ([]agent.Channel, error) {
	switch r.Channels {
	case "", string(agent.ChannelEmail):
		return []agent.Channel{agent.ChannelEmail}, nil
	case string(agent.ChannelWhatsApp):
		return []agent.Channel{agent.ChannelWhatsApp}, nil
	case "both":
		return []agent.Channel{agent.ChannelEmail, agent.ChannelWhatsApp}, nil
	default:
		return nil, fmt.Errorf("unknown channel selection %q", r.Channels)
	}
}

// subject renders the email subject for the location.
func (r *Request) subject() string {
	tmpl := r.EmailSubject
	if strings.TrimSpace(tmpl) == "" {
		tmpl = defaultSubjectTemplate
	}
	return strings.ReplaceAll(tmpl, "{location}", r.FloodLocation)
}

// Stage names a pipeline stage for logging and failure reporting.
type Stage string

const (
	StageResolving   Stage = "resolving"
	StageResearching Stage = "researching"
	StageDrafting    Stage = "drafting"
	StageVerifying   Stage = "verifying"
	StageDispatching Stage = "dispatching"
)

// PipelineError is a campaign-fatal failure attributed to the stage
// that raised it. It always wraps model.ErrUnavailable.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("campaign failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Result is the aggregate outcome of one campaign run. The email
// counters are derived by reducing Outcomes, never tracked separately.
type Result struct {
	CampaignID            string                    `json:"campaign_id"`
	Status                string                    `json:"status"`
	FloodLocation         string                    `json:"flood_location"`
	AIResearchSummary     string                    `json:"ai_research_summary"`
	AIMessageTemplateUsed string                    `json:"ai_message_template_used"`
	AIVerification        *agent.VerificationResult `json:"ai_verification"`
	DonationLinkIncluded  string                    `json:"donation_link_included"`
	ContactsTargetIDs     []uint                    `json:"contacts_target_ids"`
	ContactsFoundInDB     int                       `json:"contacts_found_in_db"`

	EmailsSentSuccessfully      int `json:"emails_sent_successfully"`
	EmailsFailedOrSkippedConfig int `json:"emails_failed_or_skipped_config"`
	ContactsSkippedNoEmail      int `json:"contacts_skipped_no_email"`

	AIErrorDetails *string            `json:"ai_error_details"`
	Outcomes       []dispatch.Outcome `json:"dispatch_outcomes"`
}

// tally recomputes the email counters from the outcome slice.
func (r *Result) tally() {
	r.EmailsSentSuccessfully = 0
	r.EmailsFailedOrSkippedConfig = 0
	r.ContactsSkippedNoEmail = 0

	for _, out := range r.Outcomes {
		if out.Channel != agent.ChannelEmail {
			continue
		}
		switch out.Status {
		case dispatch.StatusSent:
			r.EmailsSentSuccessfully++
		case dispatch.StatusFailed, dispatch.StatusSkippedConfig:
			r.EmailsFailedOrSkippedConfig++
		case dispatch.StatusSkippedNoTarget:
			r.ContactsSkippedNoEmail++
		}
	}
}
