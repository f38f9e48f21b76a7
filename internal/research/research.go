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

// Package research gathers recent news coverage for a disaster location.
// It queries a news search feed, fetches the top result pages, and
// extracts their readable text. Every failure is contained to the single
// query or link it affects: the worst possible outcome is an empty or
// partial record list, never a pipeline error.
package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxResults   = 5
	defaultFetchTimeout = 10 * time.Second
	fetchConcurrency    = 4

	// maxBodyBytes bounds how much of a result page is read.
	maxBodyBytes = 1 << 20

	userAgent = "campaigner/1.0 (+https://github.com/reliefops/campaigner)"
)

// Record is one news source consulted for a campaign. Text is empty when
// the page could not be fetched or yielded no readable content; downstream
// stages treat that as "no additional context".
type Record struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Text        string    `json:"text"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Config configures a Tool.
type Config struct {
	// FeedURL is the news search feed endpoint, e.g. the Google News RSS
	// search URL. The location query is appended as the q parameter.
	FeedURL string

	// MaxResults caps how many result links are fetched. Defaults to 5.
	MaxResults int

	// Timeout bounds each individual search or page fetch. Defaults to 10s.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Tool performs the research stage of a campaign.
type Tool struct {
	feedURL    string
	maxResults int
	timeout    time.Duration
	client     *http.Client
	log        *zap.Logger
}

// New creates a research Tool.
func New(cfg Config, lg *zap.Logger) *Tool {
	if lg == nil {
		lg = zap.NewNop()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Tool{
		feedURL:    cfg.FeedURL,
		maxResults: cfg.MaxResults,
		timeout:    cfg.Timeout,
		client:     cfg.HTTPClient,
		log:        lg,
	}
}

// Research queries the news feed for the location and fetches the top
// result pages. The returned records preserve feed order. The error is
// advisory: a non-nil error still comes with a usable (possibly empty)
// record list, and callers are expected to proceed.
func (t *Tool) Research(ctx context.Context, location string) ([]Record, error) {
	items, err := t.search(ctx, location)
	if err != nil {
		t.log.Warn("news search failed", zap.String("location", location), zap.Error(err))
		return nil, err
	}
	if len(items) > t.maxResults {
		items = items[:t.maxResults]
	}

	records := make([]Record, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, item := range items {
		g.Go(func() error {
			text, err := t.fetchText(gctx, item.Link)
			if err != nil {
				// A dead link still yields a record; its title and URL
				// carry context even without extracted text.
				t.log.Debug("page fetch failed",
					zap.String("url", item.Link),
					zap.Error(err))
				text = ""
			}
			records[i] = Record{
				Title:       item.Title,
				URL:         item.Link,
				Text:        text,
				RetrievedAt: time.Now().UTC(),
			}
			return nil
		})
	}
	// Workers never return errors; failures degrade to empty text.
	_ = g.Wait()

	t.log.Info("research complete",
		zap.String("location", location),
		zap.Int("records", len(records)))
	return records, nil
}

// search queries the feed and returns the raw result items in feed order.
func (t *Tool) search(ctx context.Context, location string) ([]feedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", location+" flood")
	q.Set("hl", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.feedURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query news feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read news feed: %w", err)
	}

	items, err := parseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}
	return items, nil
}

// fetchText downloads one result page and extracts its readable text.
func (t *Tool) fetchText(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	return ExtractText(io.LimitReader(resp.Body, maxBodyBytes)), nil
}
