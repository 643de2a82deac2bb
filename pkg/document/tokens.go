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

package document

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokenModel is the encoding used when none is configured.
const DefaultTokenModel = "cl100k_base"

// TokenCounter counts tokens using tiktoken, falling back to a chars/4
// estimate when the encoding cannot be loaded (offline environments).
type TokenCounter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter creates a counter for the given encoding name.
func NewTokenCounter(encoding string) *TokenCounter {
	if encoding == "" {
		encoding = DefaultTokenModel
	}
	return &TokenCounter{encoding: encoding}
}

// Count returns the token count of text.
func (t *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			slog.Warn("Failed to load token encoding, using estimate", "encoding", t.encoding, "error", err)
			return
		}
		t.enc = enc
	})

	if t.enc == nil {
		// Rough estimate: ~4 characters per token
		return (len(text) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}
