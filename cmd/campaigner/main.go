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

// Command campaigner runs the flood-relief outreach service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reliefops/campaigner/internal/agent"
	"github.com/reliefops/campaigner/internal/campaign"
	"github.com/reliefops/campaigner/internal/config"
	"github.com/reliefops/campaigner/internal/dispatch"
	"github.com/reliefops/campaigner/internal/model"
	"github.com/reliefops/campaigner/internal/model/anthropic"
	"github.com/reliefops/campaigner/internal/model/gemini"
	"github.com/reliefops/campaigner/internal/research"
	"github.com/reliefops/campaigner/internal/server"
	"github.com/reliefops/campaigner/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "campaigner",
		Short:         "Flood-relief outreach campaign service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		devLogging bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			lg, err := newLogger(devLogging)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			return serve(cmd.Context(), cfg, lg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&devLogging, "dev", false, "human-readable logging")
	return cmd
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serve(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	st, err := store.Open(cfg.DatabasePath, lg)
	if err != nil {
		return err
	}
	added, err := st.SeedExamples(ctx)
	if err != nil {
		return fmt.Errorf("seed example contacts: %w", err)
	}
	if added > 0 {
		lg.Info("seeded example contacts", zap.Int("added", added))
	}

	// A model that cannot be constructed (usually a missing API key) is
	// not fatal: the service starts degraded and campaign triggers
	// report the outage as 503.
	llm := buildModel(ctx, cfg.Model, lg)

	rt := agent.NewRuntime(llm, time.Duration(cfg.Model.TimeoutSeconds)*time.Second, lg)
	tool := research.New(research.Config{
		FeedURL:    cfg.Research.FeedURL,
		MaxResults: cfg.Research.MaxResults,
		Timeout:    time.Duration(cfg.Research.TimeoutSeconds) * time.Second,
	}, lg)

	orch := campaign.New(campaign.Config{
		Contacts:   st,
		Researcher: tool,
		Summarizer: agent.NewResearchAgent(rt),
		Drafter:    agent.NewContentAgent(rt),
		Verifier:   agent.NewVerifier(rt),
		Adapters: []dispatch.Adapter{
			dispatch.NewEmailAdapter(cfg.Email, lg),
			dispatch.NewWhatsAppAdapter(cfg.WhatsApp, nil, lg),
		},
		DonationLink: cfg.DonationLink,
	}, lg)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(st, orch, lg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildModel constructs the configured language-model backend. On
// failure it logs the reason and returns nil, leaving the service in
// degraded mode.
func buildModel(ctx context.Context, cfg config.ModelConfig, lg *zap.Logger) model.LLM {
	var (
		llm model.LLM
		err error
	)
	switch cfg.Provider {
	case "anthropic":
		llm, err = anthropic.NewModel(ctx, anthropicsdk.Model(cfg.AnthropicModel), &anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
		})
	case "", "gemini":
		llm, err = gemini.NewModel(ctx, cfg.GeminiModel, &gemini.Config{
			APIKey: cfg.GeminiAPIKey,
		})
	default:
		err = fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
	if err != nil {
		if errors.Is(err, model.ErrUnavailable) {
			lg.Warn("language model unavailable, starting degraded", zap.Error(err))
			return nil
		}
		lg.Warn("language model setup failed, starting degraded",
			zap.String("provider", cfg.Provider),
			zap.Error(err))
		return nil
	}
	lg.Info("language model ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", llm.Name()))
	return llm
}
