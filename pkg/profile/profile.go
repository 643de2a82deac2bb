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

// Package profile owns student profiles: per-subject proficiency maps and an
// append-only interaction history. The coordinator talks to a Store; backends
// are in-memory (demo, tests) or SQL.
package profile

import (
	"context"
	"fmt"
	"time"
)

const (
	// MinScore and MaxScore bound proficiency scores. Deltas that would
	// push a score outside the range are clamped.
	MinScore = 0.0
	MaxScore = 5.0
)

// Profile is a student's persistent state.
type Profile struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name,omitempty"`
	GradeLevel    int    `json:"grade_level,omitempty"`
	LearningStyle string `json:"learning_style,omitempty"`

	// Proficiency maps subject -> skill -> score.
	Proficiency map[string]map[string]float64 `json:"proficiency"`

	// Interactions is the ordered, append-only history.
	Interactions []Interaction `json:"interactions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interaction is one recorded exchange with the student.
type Interaction struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Intent    string    `json:"intent"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// SubjectProficiency returns a copy of the skill->score map for a subject.
// Never returns nil.
func (p *Profile) SubjectProficiency(subject string) map[string]float64 {
	snapshot := make(map[string]float64)
	if p == nil || p.Proficiency == nil {
		return snapshot
	}
	for skill, score := range p.Proficiency[subject] {
		snapshot[skill] = score
	}
	return snapshot
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Proficiency = make(map[string]map[string]float64, len(p.Proficiency))
	for subject, skills := range p.Proficiency {
		m := make(map[string]float64, len(skills))
		for skill, score := range skills {
			m[skill] = score
		}
		clone.Proficiency[subject] = m
	}
	clone.Interactions = make([]Interaction, len(p.Interactions))
	copy(clone.Interactions, p.Interactions)
	return &clone
}

// Store is the persistence collaborator contract. Implementations must make
// SaveProfileDelta atomic per student: concurrent read-modify-write of the
// proficiency map must not race.
type Store interface {
	// LoadProfile returns the profile for studentID, creating an empty one
	// if the student is unknown.
	LoadProfile(ctx context.Context, studentID string) (*Profile, error)

	// SaveProfileDelta applies skill score deltas for one subject.
	SaveProfileDelta(ctx context.Context, studentID, subject string, deltas map[string]float64) error

	// AppendInteraction records one interaction in the ordered history.
	AppendInteraction(ctx context.Context, studentID string, interaction Interaction) error
}

// StoreError represents a profile store error.
type StoreError struct {
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(component, operation, message string, err error) *StoreError {
	return &StoreError{
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// clampScore keeps scores within [MinScore, MaxScore].
func clampScore(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func newProfile(studentID string, now time.Time) *Profile {
	return &Profile{
		StudentID:   studentID,
		Proficiency: make(map[string]map[string]float64),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
