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
	"errors"
	"fmt"
)

// Sentinel errors callers can match with errors.Is. Chain-level problems
// (depth exceeded, persistence failure) are not errors from Handle; they
// surface as structured Response.Error codes alongside the completed steps.
var (
	// ErrUnknownIntent is returned for intents outside the transport set.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrInvalidRequest is returned when required request fields are
	// missing.
	ErrInvalidRequest = errors.New("invalid request")
)

// CapabilityError wraps a failure from one chain step.
type CapabilityError struct {
	Capability string
	Step       int
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s failed at step %d: %v", e.Capability, e.Step, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}
