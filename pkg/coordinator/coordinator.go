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

// Package coordinator dispatches transport intents to capabilities and runs
// bounded capability chains. One request maps to one chain: the routed
// capability runs first and each result may hand off to a follow-up
// capability until the chain stops or the depth bound is hit. Session and
// profile effects are applied only for steps that succeeded.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tutorkit/tutorkit/pkg/agent"
	"github.com/tutorkit/tutorkit/pkg/observability"
	"github.com/tutorkit/tutorkit/pkg/profile"
	"github.com/tutorkit/tutorkit/pkg/registry"
	"github.com/tutorkit/tutorkit/pkg/session"
)

// DefaultMaxChainDepth bounds capability chains when no limit is configured.
const DefaultMaxChainDepth = 4

// Step statuses.
const (
	StepOK    = "ok"
	StepError = "error"
)

// Response statuses.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusError   = "error"
)

// Error codes surfaced in Response.Error.
const (
	CodeChainDepthExceeded = "chain_depth_exceeded"
	CodeProfilePersistence = "profile_persistence"
)

// Request is one transport request.
type Request struct {
	Intent    string         `json:"intent"`
	StudentID string         `json:"student_id"`
	Subject   string         `json:"subject"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Step records the outcome of one chain step.
type Step struct {
	Index      int            `json:"index"`
	Capability string         `json:"capability"`
	Status     string         `json:"status"`
	Payload    map[string]any `json:"payload,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// ErrorDetail describes a request-level problem that does not invalidate the
// completed steps.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the full outcome of a handled request.
type Response struct {
	Intent    string       `json:"intent"`
	StudentID string       `json:"student_id"`
	Subject   string       `json:"subject"`
	Status    string       `json:"status"`
	Steps     []Step       `json:"steps"`
	Topic     string       `json:"topic,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`

	// chain carries step accumulation between runChain and applyEffects.
	chain *chainState
}

// Coordinator routes intents and drives capability chains.
type Coordinator struct {
	capabilities registry.Registry[agent.Capability]
	sessions     *session.Store
	profiles     profile.Store
	maxDepth     int
	metrics      *observability.Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
}

// Options configures a Coordinator.
type Options struct {
	// MaxChainDepth bounds chain length. <= 0 uses DefaultMaxChainDepth.
	MaxChainDepth int

	// Metrics records request and step counters. nil disables recording.
	Metrics *observability.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a Coordinator over the given capabilities. The capability set
// is frozen: registrations after construction are rejected.
func New(capabilities []agent.Capability, sessions *session.Store, profiles profile.Store, opts Options) (*Coordinator, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if len(capabilities) == 0 {
		return nil, fmt.Errorf("at least one capability is required")
	}

	reg := registry.NewBaseRegistry[agent.Capability]()
	for _, c := range capabilities {
		if err := reg.Register(c.Name(), c); err != nil {
			return nil, fmt.Errorf("failed to register capability %s: %w", c.Name(), err)
		}
	}
	reg.Freeze()

	maxDepth := opts.MaxChainDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxChainDepth
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		capabilities: reg,
		sessions:     sessions,
		profiles:     profiles,
		maxDepth:     maxDepth,
		metrics:      metrics,
		tracer:       observability.GetTracer("coordinator"),
		logger:       logger,
	}, nil
}

// Capabilities returns the registered capability names.
func (c *Coordinator) Capabilities() []string {
	return c.capabilities.Names()
}

// Handle processes one request. Requests for the same (student, subject)
// pair are serialized; distinct pairs run concurrently. A non-nil error
// means the request was rejected before any capability ran.
func (c *Coordinator) Handle(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	if req.StudentID == "" {
		return nil, fmt.Errorf("%w: student_id is required", ErrInvalidRequest)
	}
	if req.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidRequest)
	}
	first, ok := agent.RouteIntent(req.Intent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntent, req.Intent)
	}

	ctx, span := c.tracer.Start(ctx, "coordinator.Handle",
		trace.WithAttributes(
			attribute.String("intent", req.Intent),
			attribute.String("subject", req.Subject),
		))
	defer span.End()

	sess, release := c.sessions.Acquire(req.StudentID, req.Subject)
	defer release()

	prof, err := c.profiles.LoadProfile(ctx, req.StudentID)
	if err != nil {
		c.metrics.RecordRequest(ctx, req.Intent, StatusError, time.Since(start))
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	resp := c.runChain(ctx, req, first, sess, prof)

	c.applyEffects(ctx, req, resp, sess)

	// Status is derived only after effects ran: persistence failures
	// reported by applyEffects downgrade an otherwise clean chain.
	resp.Status = deriveStatus(resp)

	c.metrics.RecordRequest(ctx, req.Intent, resp.Status, time.Since(start))
	c.logger.Info("Handled request",
		"intent", req.Intent,
		"student", req.StudentID,
		"subject", req.Subject,
		"status", resp.Status,
		"steps", len(resp.Steps),
		"duration", time.Since(start))

	return resp, nil
}

// chainState carries the cross-step accumulation of one chain run.
type chainState struct {
	deltas map[string]float64
	turns  []session.Turn
	topic  string
}

func (c *Coordinator) runChain(ctx context.Context, req *Request, first string, sess *session.Context, prof *profile.Profile) *Response {
	resp := &Response{
		Intent:    req.Intent,
		StudentID: req.StudentID,
		Subject:   req.Subject,
	}

	state := &chainState{
		deltas: make(map[string]float64),
		topic:  sess.CurrentTopic,
	}

	view := &agent.ContextView{
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Profile:   prof,
		Session:   sess.Snapshot(),
	}

	payload := clonePayload(req.Payload)
	capName := first

	for step := 0; ; step++ {
		if step >= c.maxDepth {
			c.logger.Warn("Capability chain depth exceeded",
				"intent", req.Intent, "next", capName, "max_depth", c.maxDepth)
			resp.Error = &ErrorDetail{
				Code:    CodeChainDepthExceeded,
				Message: fmt.Sprintf("chain stopped before %s: depth limit %d reached", capName, c.maxDepth),
			}
			break
		}

		capability, found := c.capabilities.Get(capName)
		if !found {
			resp.Steps = append(resp.Steps, Step{
				Index:      step,
				Capability: capName,
				Status:     StepError,
				Error:      fmt.Sprintf("unknown capability: %s", capName),
			})
			break
		}

		result, duration, err := c.invoke(ctx, capability, &agent.Request{
			Capability: capName,
			Intent:     req.Intent,
			Payload:    payload,
			Context:    view,
		})

		if err != nil {
			c.metrics.RecordStep(ctx, capName, StepError)
			c.logger.Warn("Capability step failed",
				"capability", capName, "step", step, "error", err)
			resp.Steps = append(resp.Steps, Step{
				Index:      step,
				Capability: capName,
				Status:     StepError,
				Error:      (&CapabilityError{Capability: capName, Step: step, Err: err}).Error(),
				DurationMs: duration.Milliseconds(),
			})
			break
		}

		c.metrics.RecordStep(ctx, capName, StepOK)
		resp.Steps = append(resp.Steps, Step{
			Index:      step,
			Capability: capName,
			Status:     StepOK,
			Payload:    result.Payload,
			DurationMs: duration.Milliseconds(),
		})

		for skill, delta := range result.SkillDeltas {
			state.deltas[skill] += delta
		}
		if result.TopicHint != "" {
			state.topic = result.TopicHint
		}
		state.turns = append(state.turns, session.Turn{
			ID:         uuid.New().String(),
			Intent:     req.Intent,
			Capability: capName,
			Summary:    result.Summary,
			Timestamp:  time.Now(),
		})
		if result.FollowUp == "" {
			break
		}

		// The follow-up sees the previous result plus the deltas
		// accumulated so far.
		payload = clonePayload(result.Payload)
		if len(state.deltas) > 0 {
			payload["skill_deltas"] = cloneDeltas(state.deltas)
		}
		capName = result.FollowUp
	}

	resp.Topic = state.topic

	resp.chain = state
	return resp
}

func (c *Coordinator) invoke(ctx context.Context, capability agent.Capability, req *agent.Request) (*agent.Result, time.Duration, error) {
	ctx, span := c.tracer.Start(ctx, "capability."+capability.Name())
	defer span.End()

	start := time.Now()
	result, err := capability.Process(ctx, req)
	duration := time.Since(start)
	if err != nil {
		span.RecordError(err)
		return nil, duration, err
	}
	if result == nil {
		return nil, duration, fmt.Errorf("capability %s returned no result", capability.Name())
	}
	return result, duration, nil
}

// applyEffects commits session and profile changes for the completed steps.
// Session effects apply first; profile persistence failures are reported on
// the response without discarding the chain output.
func (c *Coordinator) applyEffects(ctx context.Context, req *Request, resp *Response, sess *session.Context) {
	state := resp.chain
	if state == nil {
		return
	}
	resp.chain = nil

	for _, turn := range state.turns {
		sess.AppendTurn(turn)
	}
	if state.topic != "" {
		sess.CurrentTopic = state.topic
	}

	if len(state.deltas) > 0 {
		if err := c.profiles.SaveProfileDelta(ctx, req.StudentID, req.Subject, state.deltas); err != nil {
			c.logger.Error("Failed to persist profile deltas",
				"student", req.StudentID, "subject", req.Subject, "error", err)
			resp.Error = &ErrorDetail{
				Code:    CodeProfilePersistence,
				Message: fmt.Sprintf("completed steps are valid but profile updates were not saved: %v", err),
			}
		}
	}

	if len(state.turns) > 0 {
		interaction := profile.Interaction{
			ID:        uuid.New().String(),
			Subject:   req.Subject,
			Intent:    req.Intent,
			Summary:   state.turns[0].Summary,
			Timestamp: state.turns[0].Timestamp,
		}
		if err := c.profiles.AppendInteraction(ctx, req.StudentID, interaction); err != nil {
			c.logger.Warn("Failed to record interaction",
				"student", req.StudentID, "error", err)
		}
	}
}

// deriveStatus computes the response status from its steps.
func deriveStatus(resp *Response) string {
	if len(resp.Steps) == 0 {
		return StatusError
	}
	failed := 0
	for _, s := range resp.Steps {
		if s.Status == StepError {
			failed++
		}
	}
	switch {
	case failed == 0 && resp.Error == nil:
		return StatusOK
	case failed == len(resp.Steps):
		return StatusError
	default:
		return StatusPartial
	}
}

func clonePayload(payload map[string]any) map[string]any {
	clone := make(map[string]any, len(payload))
	for k, v := range payload {
		clone[k] = v
	}
	return clone
}

func cloneDeltas(deltas map[string]float64) map[string]float64 {
	clone := make(map[string]float64, len(deltas))
	for k, v := range deltas {
		clone[k] = v
	}
	return clone
}
