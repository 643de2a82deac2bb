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

// Package agent defines the capability contract and the seven built-in
// capabilities the coordinator dispatches to. Each capability is a focused
// specialist: it receives a request plus a read-only view of the student's
// state and returns a result that may hand off to a follow-up capability.
package agent

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/tutorkit/tutorkit/pkg/profile"
	"github.com/tutorkit/tutorkit/pkg/session"
)

// Transport intents accepted by the coordinator.
const (
	IntentStartSession     = "start_session"
	IntentAskQuestion      = "ask_question"
	IntentRecommendContent = "recommend_content"
	IntentSubmitAssessment = "submit_assessment"
	IntentGetProgress      = "get_progress"
	IntentProcessDocument  = "process_document"
)

// Capability names.
const (
	CapabilityTutoring              = "tutoring"
	CapabilityContentCurator        = "content_curator"
	CapabilityAssessment            = "assessment"
	CapabilityProgressTracking      = "progress_tracking"
	CapabilityDocumentProcessing    = "document_processing"
	CapabilityDocumentUnderstanding = "document_understanding"
	CapabilitySkillDevelopment      = "skill_development"
)

// Request is what the coordinator hands to a capability for one chain step.
type Request struct {
	// Capability is the name of the capability being invoked.
	Capability string

	// Intent is the original transport intent that started the chain.
	Intent string

	// Payload carries the step input. For the first step this is the
	// transport payload; for follow-up steps it is the previous step's
	// result payload plus accumulated skill deltas.
	Payload map[string]any

	// Context is the read-only student view for this request.
	Context *ContextView
}

// ContextView is the immutable student state capabilities read from. Mutation
// happens only through Result fields, applied by the coordinator.
type ContextView struct {
	StudentID string
	Subject   string
	Profile   *profile.Profile
	Session   session.Snapshot
}

// SubjectProficiency returns the skill->score map for the request subject.
func (v *ContextView) SubjectProficiency() map[string]float64 {
	if v == nil || v.Profile == nil {
		return map[string]float64{}
	}
	return v.Profile.SubjectProficiency(v.Subject)
}

// Result is a capability's output for one chain step.
type Result struct {
	// Capability is the name of the capability that produced the result.
	Capability string `json:"capability"`

	// Payload is the step output, also the input seed for any follow-up.
	Payload map[string]any `json:"payload"`

	// TopicHint, when non-empty, updates the session's current topic.
	TopicHint string `json:"topic_hint,omitempty"`

	// SkillDeltas are proficiency adjustments to persist at chain end.
	SkillDeltas map[string]float64 `json:"skill_deltas,omitempty"`

	// FollowUp names the next capability to invoke, or empty to stop.
	FollowUp string `json:"follow_up,omitempty"`

	// Summary is a one-line description recorded in the session history.
	Summary string `json:"summary,omitempty"`
}

// Capability is a dispatchable specialist.
type Capability interface {
	// Name returns the capability's registered name.
	Name() string

	// Process handles one chain step.
	Process(ctx context.Context, req *Request) (*Result, error)
}

// DecodePayload maps a request payload onto a typed struct. Decoding is
// weakly typed so JSON numbers and strings coerce where sensible.
func DecodePayload(payload map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("failed to create payload decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// Error represents a capability processing error.
type Error struct {
	Capability string
	Operation  string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Capability, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Capability, e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(capability, operation, message string, err error) *Error {
	return &Error{
		Capability: capability,
		Operation:  operation,
		Message:    message,
		Err:        err,
	}
}

// ValidIntent reports whether intent is one of the transport intents.
func ValidIntent(intent string) bool {
	switch intent {
	case IntentStartSession, IntentAskQuestion, IntentRecommendContent,
		IntentSubmitAssessment, IntentGetProgress, IntentProcessDocument:
		return true
	}
	return false
}

// RouteIntent maps a transport intent to the capability that handles it.
func RouteIntent(intent string) (string, bool) {
	switch intent {
	case IntentStartSession, IntentAskQuestion:
		return CapabilityTutoring, true
	case IntentRecommendContent:
		return CapabilityContentCurator, true
	case IntentSubmitAssessment:
		return CapabilityAssessment, true
	case IntentGetProgress:
		return CapabilityProgressTracking, true
	case IntentProcessDocument:
		return CapabilityDocumentProcessing, true
	}
	return "", false
}
