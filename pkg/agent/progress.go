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
)

// ProgressTracking reports a student's proficiency snapshot and, when the
// chain carries pending skill deltas, the projected movement those deltas
// produce.
type ProgressTracking struct{}

func NewProgressTracking() *ProgressTracking {
	return &ProgressTracking{}
}

func (p *ProgressTracking) Name() string {
	return CapabilityProgressTracking
}

// SkillTrend describes one skill's movement.
type SkillTrend struct {
	Skill     string  `json:"skill"`
	From      float64 `json:"from"`
	To        float64 `json:"to"`
	Direction string  `json:"direction"`
}

type progressPayload struct {
	SkillDeltas map[string]float64 `json:"skill_deltas"`
}

func (p *ProgressTracking) Process(ctx context.Context, req *Request) (*Result, error) {
	var in progressPayload
	if err := DecodePayload(req.Payload, &in); err != nil {
		return nil, NewError(p.Name(), "Process", "invalid payload", err)
	}

	proficiency := req.Context.SubjectProficiency()
	trends := computeTrends(proficiency, in.SkillDeltas)

	var improving, declining int
	for _, t := range trends {
		switch t.Direction {
		case "improving":
			improving++
		case "declining":
			declining++
		}
	}

	payload := map[string]any{
		"subject":     req.Context.Subject,
		"proficiency": proficiency,
		"trends":      trends,
		"assessment":  overallTrend(improving, declining),
	}
	if areas := improvementAreas(proficiency, in.SkillDeltas, 3); len(areas) > 0 {
		payload["improvement_areas"] = areas
	}

	return &Result{
		Capability: p.Name(),
		Payload:    payload,
		Summary:    fmt.Sprintf("tracked progress across %d skills", len(trends)),
	}, nil
}

// computeTrends pairs each known or changed skill with its current score and
// the score the pending deltas would produce.
func computeTrends(proficiency, deltas map[string]float64) []SkillTrend {
	skills := make(map[string]bool)
	for skill := range proficiency {
		skills[skill] = true
	}
	for skill := range deltas {
		skills[skill] = true
	}

	names := make([]string, 0, len(skills))
	for skill := range skills {
		names = append(names, skill)
	}
	sort.Strings(names)

	trends := make([]SkillTrend, 0, len(names))
	for _, skill := range names {
		from := proficiency[skill]
		to := clamp05(from + deltas[skill])
		trends = append(trends, SkillTrend{
			Skill:     skill,
			From:      from,
			To:        to,
			Direction: trendDirection(from, to),
		})
	}
	return trends
}

func trendDirection(from, to float64) string {
	switch {
	case to > from:
		return "improving"
	case to < from:
		return "declining"
	default:
		return "stable"
	}
}

func overallTrend(improving, declining int) string {
	switch {
	case improving > declining:
		return "improving"
	case declining > improving:
		return "declining"
	default:
		return "stable"
	}
}

// improvementAreas returns up to n skills with the lowest projected scores.
func improvementAreas(proficiency, deltas map[string]float64, n int) []string {
	projected := make(map[string]float64, len(proficiency))
	for skill, score := range proficiency {
		projected[skill] = clamp05(score + deltas[skill])
	}
	for skill, delta := range deltas {
		if _, seen := projected[skill]; !seen {
			projected[skill] = clamp05(delta)
		}
	}
	return weakestSkills(projected, n)
}

func clamp05(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

var _ Capability = (*ProgressTracking)(nil)
