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
	"sort"
	"strings"
)

// Responder generates a tutoring answer for a question. The default
// implementation is template-based; deployments can plug in a richer one.
type Responder interface {
	Respond(ctx context.Context, subject, topic, question string, proficiency map[string]float64) (string, error)
}

// Tutoring is the primary student-facing capability. It handles session
// starts and question answering, derives the current topic from the question
// text and suggests follow-up questions.
type Tutoring struct {
	responder Responder
}

// NewTutoring creates the tutoring capability. responder may be nil, in
// which case a built-in template responder is used.
func NewTutoring(responder Responder) *Tutoring {
	if responder == nil {
		responder = templateResponder{}
	}
	return &Tutoring{responder: responder}
}

func (t *Tutoring) Name() string {
	return CapabilityTutoring
}

func (t *Tutoring) Process(ctx context.Context, req *Request) (*Result, error) {
	switch req.Intent {
	case IntentStartSession:
		return t.startSession(req)
	default:
		return t.answerQuestion(ctx, req)
	}
}

type tutoringPayload struct {
	Question string `json:"question"`
	Topic    string `json:"topic"`
}

func (t *Tutoring) startSession(req *Request) (*Result, error) {
	view := req.Context
	proficiency := view.SubjectProficiency()

	// Pick the weakest skills as suggested focus areas
	focus := weakestSkills(proficiency, 3)

	greeting := fmt.Sprintf("Welcome back! Ready to work on %s.", view.Subject)
	if view.Profile != nil && view.Profile.Name != "" {
		greeting = fmt.Sprintf("Welcome back, %s! Ready to work on %s.", view.Profile.Name, view.Subject)
	}

	payload := map[string]any{
		"greeting":    greeting,
		"subject":     view.Subject,
		"focus_areas": focus,
		"proficiency": proficiency,
	}
	if len(view.Session.History) > 0 {
		payload["resuming"] = true
		payload["previous_topic"] = view.Session.CurrentTopic
	}

	return &Result{
		Capability: t.Name(),
		Payload:    payload,
		Summary:    fmt.Sprintf("started %s session", view.Subject),
	}, nil
}

func (t *Tutoring) answerQuestion(ctx context.Context, req *Request) (*Result, error) {
	var p tutoringPayload
	if err := DecodePayload(req.Payload, &p); err != nil {
		return nil, NewError(t.Name(), "answerQuestion", "invalid payload", err)
	}
	if strings.TrimSpace(p.Question) == "" {
		return nil, NewError(t.Name(), "answerQuestion", "question cannot be empty", nil)
	}

	view := req.Context
	topic := p.Topic
	if topic == "" {
		topic = deriveTopic(p.Question, view.Session.CurrentTopic)
	}

	proficiency := view.SubjectProficiency()
	answer, err := t.responder.Respond(ctx, view.Subject, topic, p.Question, proficiency)
	if err != nil {
		return nil, NewError(t.Name(), "answerQuestion", "failed to generate answer", err)
	}

	return &Result{
		Capability: t.Name(),
		Payload: map[string]any{
			"answer":              answer,
			"topic":               topic,
			"question":            p.Question,
			"follow_up_questions": followUpQuestions(view.Subject, topic),
		},
		TopicHint: topic,
		Summary:   fmt.Sprintf("answered question about %s", topic),
	}, nil
}

// deriveTopic extracts a topic from the question text. The longest
// significant word wins; the session's current topic is the fallback.
func deriveTopic(question, currentTopic string) string {
	best := ""
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) <= 3 || stopWords[word] {
			continue
		}
		if len(word) > len(best) {
			best = word
		}
	}
	if best == "" {
		if currentTopic != "" {
			return currentTopic
		}
		return "general"
	}
	return best
}

var stopWords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true, "does": true,
	"how": true, "why": true, "who": true, "the": true, "this": true,
	"that": true, "with": true, "about": true, "can": true, "could": true,
	"would": true, "should": true, "please": true, "explain": true,
	"tell": true, "help": true, "have": true, "from": true, "into": true,
}

func followUpQuestions(subject, topic string) []string {
	return []string{
		fmt.Sprintf("Can you give me an example of %s?", topic),
		fmt.Sprintf("How does %s relate to other ideas in %s?", topic, subject),
		fmt.Sprintf("What should I practice to get better at %s?", topic),
	}
}

// weakestSkills returns up to n skill names ordered by ascending score.
func weakestSkills(proficiency map[string]float64, n int) []string {
	type entry struct {
		skill string
		score float64
	}
	entries := make([]entry, 0, len(proficiency))
	for skill, score := range proficiency {
		entries = append(entries, entry{skill, score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score < entries[j].score
		}
		return entries[i].skill < entries[j].skill
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	skills := make([]string, 0, len(entries))
	for _, e := range entries {
		skills = append(skills, e.skill)
	}
	return skills
}

// templateResponder is the built-in answer generator. It adapts register to
// the student's proficiency on the topic.
type templateResponder struct{}

func (templateResponder) Respond(_ context.Context, subject, topic, question string, proficiency map[string]float64) (string, error) {
	score := proficiency[topic]
	switch {
	case score < 2:
		return fmt.Sprintf("Let's take %s step by step. It is a core idea in %s, so we will start from the basics and build up.",
			topic, subject), nil
	case score < 4:
		return fmt.Sprintf("Good question about %s. You already know the fundamentals, so let's look at how %s works in practice.",
			topic, topic), nil
	default:
		return fmt.Sprintf("You have a strong grasp of %s. Here is a deeper angle on your question: consider the edge cases where the usual rules of %s break down.",
			topic, topic), nil
	}
}

var _ Capability = (*Tutoring)(nil)
