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

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorkit/tutorkit/pkg/agent"
	"github.com/tutorkit/tutorkit/pkg/profile"
	"github.com/tutorkit/tutorkit/pkg/session"
)

// stubCapability lets tests script chain behavior.
type stubCapability struct {
	name string
	fn   func(ctx context.Context, req *agent.Request) (*agent.Result, error)
}

func (s *stubCapability) Name() string { return s.name }

func (s *stubCapability) Process(ctx context.Context, req *agent.Request) (*agent.Result, error) {
	return s.fn(ctx, req)
}

func okStub(name, followUp string, deltas map[string]float64) *stubCapability {
	return &stubCapability{
		name: name,
		fn: func(_ context.Context, req *agent.Request) (*agent.Result, error) {
			return &agent.Result{
				Capability:  name,
				Payload:     map[string]any{"from": name},
				SkillDeltas: deltas,
				FollowUp:    followUp,
				Summary:     "stub " + name,
			}, nil
		},
	}
}

// recordingStore counts SaveProfileDelta calls.
type recordingStore struct {
	*profile.MemoryStore
	mu        sync.Mutex
	saveCalls []map[string]float64
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: profile.NewMemoryStore()}
}

func (r *recordingStore) SaveProfileDelta(ctx context.Context, studentID, subject string, deltas map[string]float64) error {
	r.mu.Lock()
	copied := make(map[string]float64, len(deltas))
	for k, v := range deltas {
		copied[k] = v
	}
	r.saveCalls = append(r.saveCalls, copied)
	r.mu.Unlock()
	return r.MemoryStore.SaveProfileDelta(ctx, studentID, subject, deltas)
}

// failingStore accepts loads but rejects writes.
type failingStore struct {
	*profile.MemoryStore
}

func (f *failingStore) SaveProfileDelta(ctx context.Context, studentID, subject string, deltas map[string]float64) error {
	return errors.New("disk on fire")
}

func newCoordinator(t *testing.T, caps []agent.Capability, store profile.Store, maxDepth int) (*Coordinator, *session.Store) {
	t.Helper()
	sessions := session.NewStore(0)
	c, err := New(caps, sessions, store, Options{MaxChainDepth: maxDepth})
	require.NoError(t, err)
	return c, sessions
}

func allStubs(followUps map[string]string, deltas map[string]map[string]float64) []agent.Capability {
	names := []string{
		agent.CapabilityTutoring,
		agent.CapabilityContentCurator,
		agent.CapabilityAssessment,
		agent.CapabilityProgressTracking,
		agent.CapabilityDocumentProcessing,
		agent.CapabilityDocumentUnderstanding,
		agent.CapabilitySkillDevelopment,
	}
	caps := make([]agent.Capability, 0, len(names))
	for _, name := range names {
		caps = append(caps, okStub(name, followUps[name], deltas[name]))
	}
	return caps
}

func TestHandle_UnknownIntent(t *testing.T) {
	c, sessions := newCoordinator(t, allStubs(nil, nil), profile.NewMemoryStore(), 0)

	_, err := c.Handle(context.Background(), &Request{
		Intent:    "do_magic",
		StudentID: "s1",
		Subject:   "math",
	})
	require.ErrorIs(t, err, ErrUnknownIntent)
	assert.Equal(t, 0, sessions.Count(), "rejected intents must not create sessions")
}

func TestHandle_MissingFields(t *testing.T) {
	c, _ := newCoordinator(t, allStubs(nil, nil), profile.NewMemoryStore(), 0)

	_, err := c.Handle(context.Background(), &Request{Intent: agent.IntentAskQuestion, Subject: "math"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = c.Handle(context.Background(), &Request{Intent: agent.IntentAskQuestion, StudentID: "s1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHandle_SingleStep(t *testing.T) {
	c, sessions := newCoordinator(t, allStubs(nil, nil), profile.NewMemoryStore(), 0)

	resp, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentAskQuestion,
		StudentID: "s1",
		Subject:   "math",
		Payload:   map[string]any{"question": "what is x?"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, resp.Status)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, agent.CapabilityTutoring, resp.Steps[0].Capability)
	assert.Equal(t, StepOK, resp.Steps[0].Status)

	snap, found := sessions.Peek("s1", "math")
	require.True(t, found)
	require.Len(t, snap.History, 1)
	assert.Equal(t, agent.CapabilityTutoring, snap.History[0].Capability)
}

func TestHandle_ChainMergesDeltas(t *testing.T) {
	store := newRecordingStore()
	require.NoError(t, store.MemoryStore.SaveProfileDelta(context.Background(), "s1", "math", map[string]float64{"algebra": 3}))
	store.saveCalls = nil

	followUps := map[string]string{
		agent.CapabilityAssessment: agent.CapabilityProgressTracking,
	}
	deltas := map[string]map[string]float64{
		agent.CapabilityAssessment: {"algebra": 1},
	}

	c, _ := newCoordinator(t, allStubs(followUps, deltas), store, 0)

	resp, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentSubmitAssessment,
		StudentID: "s1",
		Subject:   "math",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, resp.Status)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, agent.CapabilityAssessment, resp.Steps[0].Capability)
	assert.Equal(t, agent.CapabilityProgressTracking, resp.Steps[1].Capability)

	require.Len(t, store.saveCalls, 1, "chain deltas persist in one merged write")
	assert.Equal(t, map[string]float64{"algebra": 1}, store.saveCalls[0])

	p, err := store.LoadProfile(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.Proficiency["math"]["algebra"], "3 + 1 applied exactly once")
}

func TestHandle_FollowUpSeesAccumulatedDeltas(t *testing.T) {
	var secondPayload map[string]any

	first := okStub(agent.CapabilityAssessment, agent.CapabilityProgressTracking, map[string]float64{"algebra": 0.5})
	second := &stubCapability{
		name: agent.CapabilityProgressTracking,
		fn: func(_ context.Context, req *agent.Request) (*agent.Result, error) {
			secondPayload = req.Payload
			return &agent.Result{Capability: agent.CapabilityProgressTracking, Payload: map[string]any{}}, nil
		},
	}
	caps := []agent.Capability{
		first, second,
		okStub(agent.CapabilityTutoring, "", nil),
		okStub(agent.CapabilityContentCurator, "", nil),
		okStub(agent.CapabilityDocumentProcessing, "", nil),
		okStub(agent.CapabilityDocumentUnderstanding, "", nil),
		okStub(agent.CapabilitySkillDevelopment, "", nil),
	}

	c, _ := newCoordinator(t, caps, profile.NewMemoryStore(), 0)

	_, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentSubmitAssessment,
		StudentID: "s1",
		Subject:   "math",
	})
	require.NoError(t, err)

	require.NotNil(t, secondPayload)
	assert.Equal(t, "assessment", secondPayload["from"], "follow-up receives the previous result payload")
	assert.Equal(t, map[string]float64{"algebra": 0.5}, secondPayload["skill_deltas"])
}

func TestHandle_ChainDepthExceeded(t *testing.T) {
	// Every capability asks for another tutoring step, forever.
	followUps := map[string]string{}
	for _, name := range []string{
		agent.CapabilityTutoring, agent.CapabilityContentCurator, agent.CapabilityAssessment,
		agent.CapabilityProgressTracking, agent.CapabilityDocumentProcessing,
		agent.CapabilityDocumentUnderstanding, agent.CapabilitySkillDevelopment,
	} {
		followUps[name] = agent.CapabilityTutoring
	}

	c, sessions := newCoordinator(t, allStubs(followUps, nil), profile.NewMemoryStore(), 3)

	resp, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentAskQuestion,
		StudentID: "s1",
		Subject:   "math",
	})
	require.NoError(t, err)

	assert.Len(t, resp.Steps, 3, "exactly max depth steps run")
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeChainDepthExceeded, resp.Error.Code)
	assert.Equal(t, StatusPartial, resp.Status)

	snap, found := sessions.Peek("s1", "math")
	require.True(t, found)
	assert.Len(t, snap.History, 3, "completed steps keep their session effects")
}

func TestHandle_PartialFailure(t *testing.T) {
	store := newRecordingStore()

	failing := &stubCapability{
		name: agent.CapabilityDocumentUnderstanding,
		fn: func(_ context.Context, req *agent.Request) (*agent.Result, error) {
			return nil, agent.NewError(agent.CapabilityDocumentUnderstanding, "Process", "no document text to analyze", nil)
		},
	}
	caps := []agent.Capability{
		okStub(agent.CapabilityDocumentProcessing, agent.CapabilityDocumentUnderstanding, map[string]float64{"reading": 0.5}),
		failing,
		okStub(agent.CapabilityTutoring, "", nil),
		okStub(agent.CapabilityContentCurator, "", nil),
		okStub(agent.CapabilityAssessment, "", nil),
		okStub(agent.CapabilityProgressTracking, "", nil),
		okStub(agent.CapabilitySkillDevelopment, "", nil),
	}

	c, sessions := newCoordinator(t, caps, store, 0)

	resp, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentProcessDocument,
		StudentID: "s1",
		Subject:   "science",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, resp.Status)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, StepOK, resp.Steps[0].Status)
	assert.Equal(t, StepError, resp.Steps[1].Status)
	assert.Contains(t, resp.Steps[1].Error, "no document text")

	require.Len(t, store.saveCalls, 1, "deltas from completed steps still persist")
	assert.Equal(t, map[string]float64{"reading": 0.5}, store.saveCalls[0])

	snap, _ := sessions.Peek("s1", "science")
	assert.Len(t, snap.History, 1, "only the successful step records a turn")
}

func TestHandle_FirstStepFails(t *testing.T) {
	failing := &stubCapability{
		name: agent.CapabilityTutoring,
		fn: func(_ context.Context, req *agent.Request) (*agent.Result, error) {
			return nil, errors.New("boom")
		},
	}
	caps := allStubs(nil, nil)
	caps[0] = failing

	c, _ := newCoordinator(t, caps, profile.NewMemoryStore(), 0)

	resp, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentAskQuestion,
		StudentID: "s1",
		Subject:   "math",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusError, resp.Status)
}

func TestHandle_ProfilePersistenceFailure(t *testing.T) {
	store := &failingStore{MemoryStore: profile.NewMemoryStore()}

	deltas := map[string]map[string]float64{
		agent.CapabilityAssessment: {"algebra": 1},
	}
	c, _ := newCoordinator(t, allStubs(nil, deltas), store, 0)

	resp, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentSubmitAssessment,
		StudentID: "s1",
		Subject:   "math",
	})
	require.NoError(t, err)

	// Steps remain valid; the response carries a separate error detail.
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, StepOK, resp.Steps[0].Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeProfilePersistence, resp.Error.Code)
	assert.Equal(t, StatusPartial, resp.Status)
}

func TestHandle_TopicHintUpdatesSession(t *testing.T) {
	topicStub := &stubCapability{
		name: agent.CapabilityTutoring,
		fn: func(_ context.Context, req *agent.Request) (*agent.Result, error) {
			return &agent.Result{
				Capability: agent.CapabilityTutoring,
				Payload:    map[string]any{},
				TopicHint:  "fractions",
			}, nil
		},
	}
	caps := allStubs(nil, nil)
	caps[0] = topicStub

	c, sessions := newCoordinator(t, caps, profile.NewMemoryStore(), 0)

	resp, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentAskQuestion,
		StudentID: "s1",
		Subject:   "math",
	})
	require.NoError(t, err)
	assert.Equal(t, "fractions", resp.Topic)

	snap, _ := sessions.Peek("s1", "math")
	assert.Equal(t, "fractions", snap.CurrentTopic)
}

func TestHandle_ConcurrentSameSession(t *testing.T) {
	c, sessions := newCoordinator(t, allStubs(nil, nil), profile.NewMemoryStore(), 0)

	const requests = 8
	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Handle(context.Background(), &Request{
				Intent:    agent.IntentAskQuestion,
				StudentID: "s1",
				Subject:   "math",
				Payload:   map[string]any{"question": fmt.Sprintf("q%d", i)},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}

	snap, found := sessions.Peek("s1", "math")
	require.True(t, found)
	assert.Len(t, snap.History, requests, "serialized requests each record exactly one turn")
}

func TestHandle_AppendsInteraction(t *testing.T) {
	store := profile.NewMemoryStore()
	c, _ := newCoordinator(t, allStubs(nil, nil), store, 0)

	_, err := c.Handle(context.Background(), &Request{
		Intent:    agent.IntentAskQuestion,
		StudentID: "s1",
		Subject:   "math",
	})
	require.NoError(t, err)

	p, err := store.LoadProfile(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, p.Interactions, 1)
	assert.Equal(t, agent.IntentAskQuestion, p.Interactions[0].Intent)
	assert.Equal(t, "math", p.Interactions[0].Subject)
}

func TestNew_Validation(t *testing.T) {
	sessions := session.NewStore(0)
	store := profile.NewMemoryStore()

	_, err := New(nil, sessions, store, Options{})
	assert.Error(t, err, "empty capability set is rejected")

	_, err = New(allStubs(nil, nil), nil, store, Options{})
	assert.Error(t, err)

	_, err = New(allStubs(nil, nil), sessions, nil, Options{})
	assert.Error(t, err)
}
