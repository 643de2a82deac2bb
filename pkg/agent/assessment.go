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

// Assessment grades submitted results, translates per-skill scores into
// proficiency deltas and hands off to progress tracking.
type Assessment struct{}

func NewAssessment() *Assessment {
	return &Assessment{}
}

func (a *Assessment) Name() string {
	return CapabilityAssessment
}

type assessmentPayload struct {
	AssessmentID string             `json:"assessment_id"`
	SkillScores  map[string]float64 `json:"skill_scores"`
	SkillDeltas  map[string]float64 `json:"skill_deltas"`
}

func (a *Assessment) Process(ctx context.Context, req *Request) (*Result, error) {
	var p assessmentPayload
	if err := DecodePayload(req.Payload, &p); err != nil {
		return nil, NewError(a.Name(), "Process", "invalid payload", err)
	}
	if len(p.SkillScores) == 0 && len(p.SkillDeltas) == 0 {
		return nil, NewError(a.Name(), "Process", "submission has no skill scores", nil)
	}

	// Explicit deltas pass through; otherwise derive them from the
	// normalized scores.
	deltas := p.SkillDeltas
	if len(deltas) == 0 {
		deltas = make(map[string]float64, len(p.SkillScores))
		for skill, score := range p.SkillScores {
			deltas[skill] = scoreToDelta(score)
		}
	}

	overall := overallScore(p.SkillScores)
	strengths, weaknesses := classifySkills(p.SkillScores)

	return &Result{
		Capability: a.Name(),
		Payload: map[string]any{
			"assessment_id": p.AssessmentID,
			"overall_score": overall,
			"strengths":     strengths,
			"weaknesses":    weaknesses,
			"feedback":      assessmentFeedback(overall),
			"skill_scores":  p.SkillScores,
		},
		SkillDeltas: deltas,
		FollowUp:    CapabilityProgressTracking,
		Summary:     fmt.Sprintf("graded assessment, overall %.0f%%", overall*100),
	}, nil
}

// scoreToDelta maps a normalized score in [0,1] to a proficiency delta.
func scoreToDelta(score float64) float64 {
	switch {
	case score >= 0.8:
		return 1.0
	case score >= 0.5:
		return 0.5
	case score >= 0.3:
		return 0.0
	default:
		return -0.5
	}
}

func overallScore(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// classifySkills splits skills into strengths (score >= 0.8) and weaknesses
// (score < 0.5), each sorted for stable output.
func classifySkills(scores map[string]float64) (strengths, weaknesses []string) {
	for skill, score := range scores {
		switch {
		case score >= 0.8:
			strengths = append(strengths, skill)
		case score < 0.5:
			weaknesses = append(weaknesses, skill)
		}
	}
	sort.Strings(strengths)
	sort.Strings(weaknesses)
	return strengths, weaknesses
}

func assessmentFeedback(overall float64) string {
	switch {
	case overall >= 0.8:
		return "Excellent work. You are ready for more challenging material."
	case overall >= 0.5:
		return "Solid progress. Review the weaker skills and try again."
	default:
		return "Keep practicing. Focus on the fundamentals before moving on."
	}
}

var _ Capability = (*Assessment)(nil)
