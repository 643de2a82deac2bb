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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LoadCreatesProfile(t *testing.T) {
	store := NewMemoryStore()

	p, err := store.LoadProfile(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", p.StudentID)
	assert.NotNil(t, p.Proficiency)
	assert.Empty(t, p.Interactions)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p1, err := store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	p1.Proficiency["math"] = map[string]float64{"algebra": 99}

	p2, err := store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, p2.Proficiency, "mutating a loaded profile must not affect the store")
}

func TestMemoryStore_SaveProfileDelta(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.SaveProfileDelta(ctx, "s1", "math", map[string]float64{"algebra": 3})
	require.NoError(t, err)
	err = store.SaveProfileDelta(ctx, "s1", "math", map[string]float64{"algebra": 1, "geometry": 2})
	require.NoError(t, err)

	p, err := store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.Proficiency["math"]["algebra"])
	assert.Equal(t, 2.0, p.Proficiency["math"]["geometry"])
}

func TestMemoryStore_SaveProfileDeltaClamps(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveProfileDelta(ctx, "s1", "math", map[string]float64{"algebra": 12}))
	require.NoError(t, store.SaveProfileDelta(ctx, "s1", "math", map[string]float64{"geometry": -3}))

	p, err := store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, MaxScore, p.Proficiency["math"]["algebra"])
	assert.Equal(t, MinScore, p.Proficiency["math"]["geometry"])
}

func TestMemoryStore_SaveProfileDeltaValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.SaveProfileDelta(ctx, "", "math", map[string]float64{"a": 1}))
	assert.Error(t, store.SaveProfileDelta(ctx, "s1", "", map[string]float64{"a": 1}))
	assert.NoError(t, store.SaveProfileDelta(ctx, "s1", "math", nil), "empty deltas are a no-op")
}

func TestMemoryStore_AppendInteraction(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"i1", "i2", "i3"} {
		err := store.AppendInteraction(ctx, "s1", Interaction{ID: id, Subject: "math", Intent: "ask_question"})
		require.NoError(t, err)
	}

	p, err := store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, p.Interactions, 3)
	assert.Equal(t, "i1", p.Interactions[0].ID)
	assert.Equal(t, "i3", p.Interactions[2].ID)
}

func TestProfile_SubjectProficiency(t *testing.T) {
	p := &Profile{
		StudentID: "s1",
		Proficiency: map[string]map[string]float64{
			"math": {"algebra": 2.5},
		},
	}

	got := p.SubjectProficiency("math")
	assert.Equal(t, 2.5, got["algebra"])

	// Unknown subject yields an empty, non-nil map
	empty := p.SubjectProficiency("history")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	// Returned map is a copy
	got["algebra"] = 0
	assert.Equal(t, 2.5, p.Proficiency["math"]["algebra"])
}

func TestSQLStore_DialectValidation(t *testing.T) {
	_, err := NewSQLStore(nil, "postgres")
	assert.Error(t, err, "nil db must be rejected")
}
