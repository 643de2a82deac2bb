// Copyright 2026 The TutorKit Authors
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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tutorkit/tutorkit/pkg/agent"
	"github.com/tutorkit/tutorkit/pkg/config"
	"github.com/tutorkit/tutorkit/pkg/content"
	"github.com/tutorkit/tutorkit/pkg/coordinator"
	"github.com/tutorkit/tutorkit/pkg/document"
	"github.com/tutorkit/tutorkit/pkg/observability"
	"github.com/tutorkit/tutorkit/pkg/profile"
	"github.com/tutorkit/tutorkit/pkg/server"
	"github.com/tutorkit/tutorkit/pkg/session"
)

// ServeCmd starts the HTTP service.
type ServeCmd struct {
	Watch bool `help:"Watch the config file and log when it changes"`
}

func (s *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NoopMetrics()
	if cfg.Global.Observability.MetricsEnabled {
		metrics, err = observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	if cfg.Global.Observability.TracingEnabled {
		shutdown, err := observability.InitTracing()
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("Trace shutdown failed", "error", err)
			}
		}()
	}

	profiles, cleanup, err := buildProfileStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	coord, err := buildCoordinator(cfg, profiles, metrics)
	if err != nil {
		return err
	}

	srv := server.New(coord, profiles, server.Options{
		Addr:    cfg.Server.Address(),
		Metrics: metrics,
	})

	slog.Info("Starting tutorkit",
		"name", cfg.Name,
		"addr", cfg.Server.Address(),
		"capabilities", len(coord.Capabilities()),
		"profile_backend", cfg.Profiles.Backend)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.Watch {
		changes, err := config.Watch(ctx, cli.Config)
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		g.Go(func() error {
			for range changes {
				// Structural settings need a restart; only report.
				slog.Warn("Configuration file changed, restart to apply", "path", cli.Config)
			}
			return nil
		})
	}

	return g.Wait()
}

func buildProfileStore(cfg *config.Config) (profile.Store, func(), error) {
	switch cfg.Profiles.Backend {
	case "", "memory":
		return profile.NewMemoryStore(), func() {}, nil
	default:
		store, err := profile.Open(cfg.Profiles.Backend, cfg.Profiles.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open profile store: %w", err)
		}
		return store, func() { store.Close() }, nil
	}
}

func buildCatalog(cfg *config.Config) (*content.Catalog, error) {
	catalog := content.NewCatalog()
	for _, m := range cfg.Content.Materials {
		err := catalog.Add(content.Material{
			ID:          m.ID,
			Title:       m.Title,
			Subject:     m.Subject,
			Skill:       m.Skill,
			Difficulty:  m.Difficulty,
			ContentType: m.ContentType,
			Body:        m.Body,
			Metadata:    m.Metadata,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load material %s: %w", m.ID, err)
		}
	}
	return catalog, nil
}

func buildCoordinator(cfg *config.Config, profiles profile.Store, metrics *observability.Metrics) (*coordinator.Coordinator, error) {
	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}

	counter := document.NewTokenCounter(cfg.Documents.TokenModel)
	extractor := document.NewExtractor(cfg.Documents.MaxUploadBytes, counter)

	capabilities := []agent.Capability{
		agent.NewTutoring(nil),
		agent.NewContentCurator(catalog),
		agent.NewAssessment(),
		agent.NewProgressTracking(),
		agent.NewDocumentProcessing(extractor),
		agent.NewDocumentUnderstanding(counter),
		agent.NewSkillDevelopment(),
	}

	sessions := session.NewStore(cfg.Coordinator.SessionHistoryLimit)

	return coordinator.New(capabilities, sessions, profiles, coordinator.Options{
		MaxChainDepth: cfg.Coordinator.MaxChainDepth,
		Metrics:       metrics,
	})
}
