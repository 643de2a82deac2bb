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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessment_DerivesDeltas(t *testing.T) {
	a := NewAssessment()

	result, err := a.Process(context.Background(), &Request{
		Intent: IntentSubmitAssessment,
		Payload: map[string]any{
			"assessment_id": "quiz-7",
			"skill_scores": map[string]any{
				"algebra":   0.9,
				"geometry":  0.6,
				"fractions": 0.35,
				"decimals":  0.1,
			},
		},
		Context: testView("math", nil),
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.SkillDeltas["algebra"])
	assert.Equal(t, 0.5, result.SkillDeltas["geometry"])
	assert.Equal(t, 0.0, result.SkillDeltas["fractions"])
	assert.Equal(t, -0.5, result.SkillDeltas["decimals"])

	assert.Equal(t, CapabilityProgressTracking, result.FollowUp,
		"grading hands off to progress tracking")
	assert.Equal(t, []string{"algebra"}, result.Payload["strengths"])
	assert.ElementsMatch(t, []string{"decimals", "fractions"}, result.Payload["weaknesses"])
}

func TestAssessment_ExplicitDeltasPassThrough(t *testing.T) {
	a := NewAssessment()

	result, err := a.Process(context.Background(), &Request{
		Intent: IntentSubmitAssessment,
		Payload: map[string]any{
			"skill_deltas": map[string]any{"algebra": 2.0},
		},
		Context: testView("math", nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.SkillDeltas["algebra"])
}

func TestAssessment_EmptySubmission(t *testing.T) {
	a := NewAssessment()

	_, err := a.Process(context.Background(), &Request{
		Intent:  IntentSubmitAssessment,
		Payload: map[string]any{},
		Context: testView("math", nil),
	})
	assert.Error(t, err)
}

func TestScoreToDelta(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{1.0, 1.0},
		{0.8, 1.0},
		{0.79, 0.5},
		{0.5, 0.5},
		{0.49, 0.0},
		{0.3, 0.0},
		{0.29, -0.5},
		{0.0, -0.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreToDelta(tt.score), "score %v", tt.score)
	}
}
