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

func TestProgressTracking_Trends(t *testing.T) {
	p := NewProgressTracking()

	result, err := p.Process(context.Background(), &Request{
		Intent: IntentGetProgress,
		Payload: map[string]any{
			"skill_deltas": map[string]any{"algebra": 1.0, "geometry": -0.5},
		},
		Context: testView("math", map[string]float64{"algebra": 3, "geometry": 2, "fractions": 4}),
	})
	require.NoError(t, err)

	trends, ok := result.Payload["trends"].([]SkillTrend)
	require.True(t, ok)
	require.Len(t, trends, 3)

	byName := make(map[string]SkillTrend)
	for _, tr := range trends {
		byName[tr.Skill] = tr
	}

	assert.Equal(t, 3.0, byName["algebra"].From)
	assert.Equal(t, 4.0, byName["algebra"].To)
	assert.Equal(t, "improving", byName["algebra"].Direction)
	assert.Equal(t, "declining", byName["geometry"].Direction)
	assert.Equal(t, "stable", byName["fractions"].Direction)

	assert.Equal(t, "stable", result.Payload["assessment"],
		"one improving and one declining skill balance out")
	assert.Empty(t, result.FollowUp, "progress tracking ends the chain")
}

func TestProgressTracking_NoDeltas(t *testing.T) {
	p := NewProgressTracking()

	result, err := p.Process(context.Background(), &Request{
		Intent:  IntentGetProgress,
		Payload: map[string]any{},
		Context: testView("math", map[string]float64{"algebra": 2}),
	})
	require.NoError(t, err)

	trends := result.Payload["trends"].([]SkillTrend)
	require.Len(t, trends, 1)
	assert.Equal(t, "stable", trends[0].Direction)
}

func TestProgressTracking_DeltaForUnknownSkill(t *testing.T) {
	p := NewProgressTracking()

	result, err := p.Process(context.Background(), &Request{
		Intent: IntentGetProgress,
		Payload: map[string]any{
			"skill_deltas": map[string]any{"trigonometry": 0.5},
		},
		Context: testView("math", map[string]float64{}),
	})
	require.NoError(t, err)

	trends := result.Payload["trends"].([]SkillTrend)
	require.Len(t, trends, 1)
	assert.Equal(t, "trigonometry", trends[0].Skill)
	assert.Equal(t, 0.0, trends[0].From)
	assert.Equal(t, 0.5, trends[0].To)
}
