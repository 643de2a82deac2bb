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

// Package session provides per-student, per-subject conversation contexts.
// The store hands out a context together with an exclusive lock so that
// requests for the same (student, subject) pair are serialized while
// different pairs proceed concurrently.
package session

import (
	"sync"
	"time"
)

// DefaultHistoryLimit bounds a session's turn history when no limit is
// configured.
const DefaultHistoryLimit = 20

// Turn is one recorded capability step within a session.
type Turn struct {
	ID         string    `json:"id"`
	Intent     string    `json:"intent"`
	Capability string    `json:"capability"`
	Summary    string    `json:"summary,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Context is the mutable conversation state for one (student, subject) pair.
// Callers must hold the lock returned by Store.Acquire while mutating it.
type Context struct {
	StudentID    string    `json:"student_id"`
	Subject      string    `json:"subject"`
	CurrentTopic string    `json:"current_topic,omitempty"`
	History      []Turn    `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	maxHistory int
}

// AppendTurn records a turn, evicting the oldest entries beyond the history
// bound.
func (c *Context) AppendTurn(turn Turn) {
	c.History = append(c.History, turn)
	if limit := c.maxHistory; limit > 0 && len(c.History) > limit {
		c.History = c.History[len(c.History)-limit:]
	}
	c.UpdatedAt = turn.Timestamp
}

// Snapshot returns a read-only copy of the context for handing to
// capabilities.
func (c *Context) Snapshot() Snapshot {
	history := make([]Turn, len(c.History))
	copy(history, c.History)
	return Snapshot{
		StudentID:    c.StudentID,
		Subject:      c.Subject,
		CurrentTopic: c.CurrentTopic,
		History:      history,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// Snapshot is an immutable view of a session context.
type Snapshot struct {
	StudentID    string    `json:"student_id"`
	Subject      string    `json:"subject"`
	CurrentTopic string    `json:"current_topic,omitempty"`
	History      []Turn    `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// entry pairs a context with its lock.
type entry struct {
	mu  sync.Mutex
	ctx *Context
}

// Store owns session contexts keyed by (student, subject).
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*entry
	maxHistory int
}

// NewStore creates a session store. historyLimit <= 0 uses
// DefaultHistoryLimit.
func NewStore(historyLimit int) *Store {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Store{
		sessions:   make(map[string]*entry),
		maxHistory: historyLimit,
	}
}

// Acquire returns the session context for the pair, creating it on first use,
// with its lock held. The caller must invoke release when done. Acquire blocks
// while another caller holds the same pair; distinct pairs do not contend.
func (s *Store) Acquire(studentID, subject string) (*Context, func()) {
	key := sessionKey(studentID, subject)

	s.mu.Lock()
	e, exists := s.sessions[key]
	if !exists {
		now := time.Now()
		e = &entry{
			ctx: &Context{
				StudentID:  studentID,
				Subject:    subject,
				History:    make([]Turn, 0),
				CreatedAt:  now,
				UpdatedAt:  now,
				maxHistory: s.maxHistory,
			},
		}
		s.sessions[key] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	return e.ctx, e.mu.Unlock
}

// Peek returns a snapshot of an existing session without creating one.
func (s *Store) Peek(studentID, subject string) (Snapshot, bool) {
	s.mu.Lock()
	e, exists := s.sessions[sessionKey(studentID, subject)]
	s.mu.Unlock()
	if !exists {
		return Snapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx.Snapshot(), true
}

// Expire removes a session. Pending Acquire calls holding the old entry
// finish against the removed context; new calls get a fresh one.
func (s *Store) Expire(studentID, subject string) {
	s.mu.Lock()
	delete(s.sessions, sessionKey(studentID, subject))
	s.mu.Unlock()
}

// Count reports the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func sessionKey(studentID, subject string) string {
	return studentID + "\x00" + subject
}
