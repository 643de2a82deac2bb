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
	"fmt"
	"strings"
)

// DocumentUnderstanding analyzes extracted document text: structure, main
// topics, a complexity rating and comprehension questions. It fails when the
// upstream step produced no usable text, which exercises the coordinator's
// partial-failure path. Successful analysis hands off to skill development.
type DocumentUnderstanding struct {
	counter tokenEstimator
}

type tokenEstimator interface {
	Count(text string) int
}

func NewDocumentUnderstanding(counter tokenEstimator) *DocumentUnderstanding {
	return &DocumentUnderstanding{counter: counter}
}

func (d *DocumentUnderstanding) Name() string {
	return CapabilityDocumentUnderstanding
}

type understandingPayload struct {
	Text        string   `json:"text"`
	KeyConcepts []string `json:"key_concepts"`
}

func (d *DocumentUnderstanding) Process(ctx context.Context, req *Request) (*Result, error) {
	var p understandingPayload
	if err := DecodePayload(req.Payload, &p); err != nil {
		return nil, NewError(d.Name(), "Process", "invalid payload", err)
	}

	text := strings.TrimSpace(p.Text)
	if text == "" {
		return nil, NewError(d.Name(), "Process", "no document text to analyze", nil)
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, NewError(d.Name(), "Process", "document text is malformed", nil)
	}

	topics := p.KeyConcepts
	if len(topics) == 0 {
		topics = keyConcepts(text, 5)
	}

	complexity := rateComplexity(text, sentences, d.counter)

	return &Result{
		Capability: d.Name(),
		Payload: map[string]any{
			"main_topics":             topics,
			"structure":               analyzeStructure(text, sentences),
			"complexity":              complexity,
			"comprehension_questions": comprehensionQuestions(topics),
		},
		FollowUp: CapabilitySkillDevelopment,
		Summary:  fmt.Sprintf("analyzed document, complexity %d/5", complexity),
	}, nil
}

// analyzeStructure describes how the text is organized.
func analyzeStructure(text string, sentences []string) map[string]any {
	paragraphs := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			paragraphs++
		}
	}
	if paragraphs == 0 {
		paragraphs = 1
	}

	return map[string]any{
		"paragraphs":            paragraphs,
		"sentences":             len(sentences),
		"avg_sentence_words":    averageSentenceLength(sentences),
		"has_multiple_sections": paragraphs > 3,
	}
}

func averageSentenceLength(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	total := 0
	for _, s := range sentences {
		total += len(strings.Fields(s))
	}
	return total / len(sentences)
}

// rateComplexity scores the text 1..5 from sentence length and token
// density.
func rateComplexity(text string, sentences []string, counter tokenEstimator) int {
	avgLen := averageSentenceLength(sentences)

	complexity := 1
	switch {
	case avgLen > 25:
		complexity = 3
	case avgLen > 15:
		complexity = 2
	}

	if counter != nil {
		words := len(strings.Fields(text))
		if words > 0 {
			// High tokens-per-word suggests dense technical vocabulary
			ratio := float64(counter.Count(text)) / float64(words)
			if ratio > 1.5 {
				complexity += 2
			} else if ratio > 1.2 {
				complexity++
			}
		}
	}

	if complexity > 5 {
		complexity = 5
	}
	return complexity
}

func comprehensionQuestions(topics []string) []string {
	questions := make([]string, 0, len(topics))
	for _, topic := range topics {
		questions = append(questions, fmt.Sprintf("How does the document explain %s?", topic))
	}
	if len(questions) > 4 {
		questions = questions[:4]
	}
	return questions
}

var _ Capability = (*DocumentUnderstanding)(nil)
