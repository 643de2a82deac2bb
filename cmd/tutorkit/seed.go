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
	"time"

	"github.com/google/uuid"

	"github.com/tutorkit/tutorkit/pkg/profile"
)

// SeedCmd populates the configured profile store with demo students. Useful
// for trying the API against a fresh database.
type SeedCmd struct{}

func (s *SeedCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	if cfg.Profiles.Backend == "" || cfg.Profiles.Backend == "memory" {
		return fmt.Errorf("seeding requires a persistent profile backend, got %q", cfg.Profiles.Backend)
	}

	store, err := profile.Open(cfg.Profiles.Backend, cfg.Profiles.DSN)
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	students := []struct {
		id      string
		subject string
		skills  map[string]float64
	}{
		{"demo-alice", "math", map[string]float64{"algebra": 3.5, "geometry": 2.0, "fractions": 4.0}},
		{"demo-bob", "math", map[string]float64{"algebra": 1.0, "fractions": 1.5}},
		{"demo-carol", "science", map[string]float64{"biology": 2.5, "chemistry": 3.0}},
	}

	for _, st := range students {
		if _, err := store.LoadProfile(ctx, st.id); err != nil {
			return fmt.Errorf("failed to create profile %s: %w", st.id, err)
		}
		if err := store.SaveProfileDelta(ctx, st.id, st.subject, st.skills); err != nil {
			return fmt.Errorf("failed to seed proficiency for %s: %w", st.id, err)
		}
		err := store.AppendInteraction(ctx, st.id, profile.Interaction{
			ID:        uuid.New().String(),
			Subject:   st.subject,
			Intent:    "start_session",
			Summary:   "seeded demo profile",
			Timestamp: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to seed interaction for %s: %w", st.id, err)
		}
		fmt.Printf("Seeded %s (%s, %d skills)\n", st.id, st.subject, len(st.skills))
	}

	return nil
}
