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

package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/tutorkit/tutorkit/pkg/profile"
)

// SkillDevelopment identifies proficiency gaps and proposes targeted
// exercises. When invoked at the end of a document chain it scopes the gap
// analysis to the topics the document covered.
type SkillDevelopment struct{}

func NewSkillDevelopment() *SkillDevelopment {
	return &SkillDevelopment{}
}

func (s *SkillDevelopment) Name() string {
	return CapabilitySkillDevelopment
}

// SkillGap measures how far a skill is from mastery.
type SkillGap struct {
	Skill string  `json:"skill"`
	Score float64 `json:"score"`
	Gap   float64 `json:"gap"`
	Tier  string  `json:"tier"`
}

// Exercise is a recommended practice activity.
type Exercise struct {
	ID          string  `json:"id"`
	Skill       string  `json:"skill"`
	Description string  `json:"description"`
	Difficulty  float64 `json:"difficulty"`
	Minutes     int     `json:"estimated_minutes"`
}

type skillDevPayload struct {
	MainTopics  []string           `json:"main_topics"`
	SkillDeltas map[string]float64 `json:"skill_deltas"`
	Count       int                `json:"count"`
}

func (s *SkillDevelopment) Process(ctx context.Context, req *Request) (*Result, error) {
	var p skillDevPayload
	if err := DecodePayload(req.Payload, &p); err != nil {
		return nil, NewError(s.Name(), "Process", "invalid payload", err)
	}

	count := p.Count
	if count <= 0 {
		count = 3
	}

	proficiency := req.Context.SubjectProficiency()

	// Topics from an upstream document step become candidate skills even
	// when the profile has never seen them.
	for _, topic := range p.MainTopics {
		if _, known := proficiency[topic]; !known {
			proficiency[topic] = 0
		}
	}
	// Pending chain deltas count toward the projected score.
	for skill, delta := range p.SkillDeltas {
		proficiency[skill] = clamp05(proficiency[skill] + delta)
	}

	gaps := identifyGaps(proficiency)
	if len(gaps) > count {
		gaps = gaps[:count]
	}

	exercises := make([]Exercise, 0, len(gaps))
	for i, gap := range gaps {
		exercises = append(exercises, buildExercise(req.Context.Subject, gap, i))
	}

	return &Result{
		Capability: s.Name(),
		Payload: map[string]any{
			"subject":    req.Context.Subject,
			"skill_gaps": gaps,
			"exercises":  exercises,
		},
		Summary: fmt.Sprintf("identified %d skill gaps", len(gaps)),
	}, nil
}

// identifyGaps returns all skills sorted by gap descending. Gap is the
// distance from the maximum score.
func identifyGaps(proficiency map[string]float64) []SkillGap {
	gaps := make([]SkillGap, 0, len(proficiency))
	for skill, score := range proficiency {
		gaps = append(gaps, SkillGap{
			Skill: skill,
			Score: score,
			Gap:   profile.MaxScore - score,
			Tier:  skillTier(score),
		})
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Gap != gaps[j].Gap {
			return gaps[i].Gap > gaps[j].Gap
		}
		return gaps[i].Skill < gaps[j].Skill
	})
	return gaps
}

func skillTier(score float64) string {
	switch {
	case score < 1.5:
		return "beginner"
	case score < 3.5:
		return "intermediate"
	default:
		return "advanced"
	}
}

// buildExercise targets an exercise just above the student's current score.
func buildExercise(subject string, gap SkillGap, idx int) Exercise {
	difficulty := gap.Score + 0.5
	if difficulty > profile.MaxScore {
		difficulty = profile.MaxScore
	}

	minutes := 15
	if gap.Tier == "advanced" {
		minutes = 30
	} else if gap.Tier == "intermediate" {
		minutes = 20
	}

	return Exercise{
		ID:          fmt.Sprintf("exercise_%s_%s_%d", subject, gap.Skill, idx),
		Skill:       gap.Skill,
		Description: exerciseDescription(subject, gap),
		Difficulty:  difficulty,
		Minutes:     minutes,
	}
}

func exerciseDescription(subject string, gap SkillGap) string {
	switch gap.Tier {
	case "beginner":
		return fmt.Sprintf("Work through guided %s examples in %s, checking each step against the solution.", gap.Skill, subject)
	case "intermediate":
		return fmt.Sprintf("Solve a mixed problem set on %s without hints, then review the ones you missed.", gap.Skill)
	default:
		return fmt.Sprintf("Tackle an open-ended %s challenge and explain your reasoning as if teaching it.", gap.Skill)
	}
}

var _ Capability = (*SkillDevelopment)(nil)
