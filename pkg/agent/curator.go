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

	"github.com/tutorkit/tutorkit/pkg/content"
)

// ContentCurator recommends catalog materials, runs keyword search over them
// and assembles multi-day study plans.
type ContentCurator struct {
	catalog *content.Catalog
}

func NewContentCurator(catalog *content.Catalog) *ContentCurator {
	return &ContentCurator{catalog: catalog}
}

func (c *ContentCurator) Name() string {
	return CapabilityContentCurator
}

type curatorPayload struct {
	Mode        string `json:"mode"`
	Query       string `json:"query"`
	ContentType string `json:"content_type"`
	Limit       int    `json:"limit"`
	Days        int    `json:"days"`
}

func (c *ContentCurator) Process(ctx context.Context, req *Request) (*Result, error) {
	var p curatorPayload
	if err := DecodePayload(req.Payload, &p); err != nil {
		return nil, NewError(c.Name(), "Process", "invalid payload", err)
	}

	switch p.Mode {
	case "", "recommend":
		return c.recommend(req, p)
	case "search":
		return c.search(req, p)
	case "study_plan":
		return c.studyPlan(req, p)
	default:
		return nil, NewError(c.Name(), "Process", fmt.Sprintf("unknown mode: %s", p.Mode), nil)
	}
}

func (c *ContentCurator) recommend(req *Request, p curatorPayload) (*Result, error) {
	proficiency := req.Context.SubjectProficiency()
	recs := c.catalog.Recommend(req.Context.Subject, proficiency, p.Limit)

	return &Result{
		Capability: c.Name(),
		Payload: map[string]any{
			"mode":            "recommend",
			"recommendations": recs,
			"subject":         req.Context.Subject,
		},
		Summary: fmt.Sprintf("recommended %d materials", len(recs)),
	}, nil
}

func (c *ContentCurator) search(req *Request, p curatorPayload) (*Result, error) {
	if p.Query == "" {
		return nil, NewError(c.Name(), "search", "query cannot be empty", nil)
	}

	results := c.catalog.Search(p.Query, req.Context.Subject, p.ContentType, p.Limit)

	return &Result{
		Capability: c.Name(),
		Payload: map[string]any{
			"mode":    "search",
			"query":   p.Query,
			"results": results,
		},
		Summary: fmt.Sprintf("found %d materials for %q", len(results), p.Query),
	}, nil
}

func (c *ContentCurator) studyPlan(req *Request, p curatorPayload) (*Result, error) {
	proficiency := req.Context.SubjectProficiency()
	plan := c.catalog.StudyPlan(req.Context.Subject, proficiency, p.Days)

	return &Result{
		Capability: c.Name(),
		Payload: map[string]any{
			"mode":    "study_plan",
			"plan":    plan,
			"subject": req.Context.Subject,
		},
		Summary: fmt.Sprintf("built a %d-day study plan", len(plan)),
	}, nil
}

var _ Capability = (*ContentCurator)(nil)
