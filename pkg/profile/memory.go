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

package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for demos and tests. A single mutex
// serializes the profile write path, which keeps per-student
// read-modify-write atomic.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
	}
}

// LoadProfile returns a deep copy so callers cannot mutate store state.
func (s *MemoryStore) LoadProfile(ctx context.Context, studentID string) (*Profile, error) {
	if studentID == "" {
		return nil, NewStoreError("MemoryStore", "LoadProfile", "student id cannot be empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.profiles[studentID]
	if !exists {
		p = newProfile(studentID, time.Now())
		s.profiles[studentID] = p
	}
	return p.Clone(), nil
}

// SaveProfileDelta applies skill deltas under the store lock.
func (s *MemoryStore) SaveProfileDelta(ctx context.Context, studentID, subject string, deltas map[string]float64) error {
	if studentID == "" {
		return NewStoreError("MemoryStore", "SaveProfileDelta", "student id cannot be empty", nil)
	}
	if subject == "" {
		return NewStoreError("MemoryStore", "SaveProfileDelta", "subject cannot be empty", nil)
	}
	if len(deltas) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p, exists := s.profiles[studentID]
	if !exists {
		p = newProfile(studentID, now)
		s.profiles[studentID] = p
	}

	skills := p.Proficiency[subject]
	if skills == nil {
		skills = make(map[string]float64)
		p.Proficiency[subject] = skills
	}
	for skill, delta := range deltas {
		skills[skill] = clampScore(skills[skill] + delta)
	}
	p.UpdatedAt = now

	return nil
}

// AppendInteraction records an interaction in arrival order.
func (s *MemoryStore) AppendInteraction(ctx context.Context, studentID string, interaction Interaction) error {
	if studentID == "" {
		return NewStoreError("MemoryStore", "AppendInteraction", "student id cannot be empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p, exists := s.profiles[studentID]
	if !exists {
		p = newProfile(studentID, now)
		s.profiles[studentID] = p
	}
	p.Interactions = append(p.Interactions, interaction)
	p.UpdatedAt = now

	return nil
}

// Put replaces a profile wholesale. Used by demo seeding.
func (s *MemoryStore) Put(p *Profile) {
	if p == nil || p.StudentID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.StudentID] = p.Clone()
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
