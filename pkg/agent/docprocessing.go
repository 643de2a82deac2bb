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
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tutorkit/tutorkit/pkg/document"
)

// DocumentProcessing extracts text from an uploaded document and derives
// study aids from it: key concepts, a short summary, prerequisites and
// practice questions. It hands the extracted text to document understanding.
type DocumentProcessing struct {
	extractor *document.Extractor
}

func NewDocumentProcessing(extractor *document.Extractor) *DocumentProcessing {
	return &DocumentProcessing{extractor: extractor}
}

func (d *DocumentProcessing) Name() string {
	return CapabilityDocumentProcessing
}

type documentPayload struct {
	Filename      string `json:"filename"`
	Text          string `json:"text"`
	ContentBase64 string `json:"content_base64"`
}

func (d *DocumentProcessing) Process(ctx context.Context, req *Request) (*Result, error) {
	var p documentPayload
	if err := DecodePayload(req.Payload, &p); err != nil {
		return nil, NewError(d.Name(), "Process", "invalid payload", err)
	}

	data, filename, err := documentBytes(p)
	if err != nil {
		return nil, NewError(d.Name(), "Process", "invalid document payload", err)
	}

	extraction, err := d.extractor.Extract(filename, data)
	if err != nil {
		return nil, NewError(d.Name(), "Process", "extraction failed", err)
	}

	concepts := keyConcepts(extraction.Text, 5)
	terms := keyTerms(extraction.Text, 8)

	return &Result{
		Capability: d.Name(),
		Payload: map[string]any{
			"filename":           filename,
			"format":             extraction.Format,
			"text":               extraction.Text,
			"word_count":         extraction.WordCount,
			"token_count":        extraction.TokenCount,
			"summary":            summarize(extraction.Text, 3),
			"key_concepts":       concepts,
			"key_terms":          terms,
			"prerequisites":      prerequisites(concepts),
			"practice_questions": practiceQuestions(concepts),
		},
		FollowUp: CapabilityDocumentUnderstanding,
		Summary:  fmt.Sprintf("processed %s (%d words)", filename, extraction.WordCount),
	}, nil
}

func documentBytes(p documentPayload) ([]byte, string, error) {
	filename := p.Filename
	if filename == "" {
		filename = "document.txt"
	}

	switch {
	case p.ContentBase64 != "":
		data, err := base64.StdEncoding.DecodeString(p.ContentBase64)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode content: %w", err)
		}
		return data, filename, nil
	case p.Text != "":
		return []byte(p.Text), filename, nil
	default:
		return nil, "", fmt.Errorf("payload must include text or content_base64")
	}
}

// ============================================================================
// TEXT ANALYSIS
// ============================================================================

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z-]{3,}`)

// keyConcepts ranks words by frequency, ignoring common stop words.
func keyConcepts(text string, n int) []string {
	freq := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if stopWords[word] {
			continue
		}
		freq[word]++
	}

	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// keyTerms picks capitalized multi-use terms, a cheap proxy for domain
// vocabulary.
func keyTerms(text string, n int) []string {
	freq := make(map[string]int)
	for _, word := range regexp.MustCompile(`\b[A-Z][a-zA-Z]{3,}\b`).FindAllString(text, -1) {
		freq[word]++
	}

	var terms []string
	for term, count := range freq {
		if count >= 2 && !stopWords[strings.ToLower(term)] {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// summarize returns the first n sentences.
func summarize(text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, " ")
}

func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(sb.String())
			if len(s) > 1 {
				sentences = append(sentences, s)
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func prerequisites(concepts []string) []string {
	prereqs := make([]string, 0, len(concepts))
	for _, c := range concepts {
		prereqs = append(prereqs, fmt.Sprintf("basic familiarity with %s", c))
	}
	if len(prereqs) > 3 {
		prereqs = prereqs[:3]
	}
	return prereqs
}

func practiceQuestions(concepts []string) []string {
	questions := make([]string, 0, len(concepts))
	for _, c := range concepts {
		questions = append(questions, fmt.Sprintf("In your own words, what is %s and why does it matter here?", c))
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}
	return questions
}

var _ Capability = (*DocumentProcessing)(nil)
