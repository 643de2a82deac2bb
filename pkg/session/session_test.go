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

package session

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStore_AcquireCreatesSession(t *testing.T) {
	store := NewStore(0)

	ctx, release := store.Acquire("s1", "math")
	defer release()

	if ctx.StudentID != "s1" || ctx.Subject != "math" {
		t.Errorf("unexpected session identity: %s/%s", ctx.StudentID, ctx.Subject)
	}
	if len(ctx.History) != 0 {
		t.Errorf("new session should have empty history, got %d turns", len(ctx.History))
	}
}

func TestStore_AcquireReturnsSameSession(t *testing.T) {
	store := NewStore(0)

	ctx1, release1 := store.Acquire("s1", "math")
	ctx1.CurrentTopic = "fractions"
	release1()

	ctx2, release2 := store.Acquire("s1", "math")
	defer release2()

	if ctx2.CurrentTopic != "fractions" {
		t.Errorf("expected persisted topic, got %q", ctx2.CurrentTopic)
	}
}

func TestStore_DistinctPairsAreIndependent(t *testing.T) {
	store := NewStore(0)

	mathCtx, releaseMath := store.Acquire("s1", "math")
	defer releaseMath()

	// Same student, different subject must not block
	done := make(chan struct{})
	go func() {
		sciCtx, releaseSci := store.Acquire("s1", "science")
		sciCtx.CurrentTopic = "photosynthesis"
		releaseSci()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire for a distinct subject blocked behind another session")
	}

	if mathCtx.CurrentTopic == "photosynthesis" {
		t.Error("sessions for distinct subjects should not share state")
	}
}

func TestStore_SamePairSerializes(t *testing.T) {
	store := NewStore(0)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, release := store.Acquire("s1", "math")
			defer release()
			ctx.AppendTurn(Turn{
				ID:        fmt.Sprintf("turn-%d", i),
				Intent:    "ask_question",
				Timestamp: time.Now(),
			})
		}(i)
	}
	wg.Wait()

	ctx, release := store.Acquire("s1", "math")
	defer release()
	if len(ctx.History) != writers {
		t.Errorf("expected %d turns, got %d", writers, len(ctx.History))
	}
}

func TestContext_HistoryBound(t *testing.T) {
	store := NewStore(5)

	ctx, release := store.Acquire("s1", "math")
	defer release()

	for i := 0; i < 12; i++ {
		ctx.AppendTurn(Turn{ID: fmt.Sprintf("t%d", i), Timestamp: time.Now()})
	}

	if len(ctx.History) != 5 {
		t.Fatalf("expected history bounded to 5, got %d", len(ctx.History))
	}
	if ctx.History[0].ID != "t7" {
		t.Errorf("expected oldest retained turn t7, got %s", ctx.History[0].ID)
	}
	if ctx.History[4].ID != "t11" {
		t.Errorf("expected newest turn t11, got %s", ctx.History[4].ID)
	}
}

func TestStore_Expire(t *testing.T) {
	store := NewStore(0)

	ctx, release := store.Acquire("s1", "math")
	ctx.CurrentTopic = "algebra"
	release()

	store.Expire("s1", "math")

	if _, found := store.Peek("s1", "math"); found {
		t.Error("expired session should not be visible")
	}

	fresh, release2 := store.Acquire("s1", "math")
	defer release2()
	if fresh.CurrentTopic != "" {
		t.Errorf("expected fresh session after expire, got topic %q", fresh.CurrentTopic)
	}
}

func TestContext_SnapshotIsolation(t *testing.T) {
	store := NewStore(0)

	ctx, release := store.Acquire("s1", "math")
	defer release()
	ctx.AppendTurn(Turn{ID: "t1", Timestamp: time.Now()})

	snap := ctx.Snapshot()
	snap.History[0].ID = "mutated"

	if ctx.History[0].ID != "t1" {
		t.Error("mutating a snapshot must not affect the live session")
	}
}
