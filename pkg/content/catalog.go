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

// Package content holds the learning material catalog used by the content
// curator capability: difficulty-aware recommendation, keyword search and
// study plan assembly.
package content

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Material is one learning resource in the catalog.
type Material struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Subject     string            `json:"subject" yaml:"subject"`
	Skill       string            `json:"skill" yaml:"skill"`
	Difficulty  float64           `json:"difficulty" yaml:"difficulty"`
	ContentType string            `json:"content_type" yaml:"content_type"`
	Body        string            `json:"body,omitempty" yaml:"body,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Recommendation pairs a material with the skill score that drove its
// selection.
type Recommendation struct {
	Material   Material `json:"material"`
	SkillScore float64  `json:"skill_score"`
	Reason     string   `json:"reason"`
}

// PlanDay is one day of a study plan.
type PlanDay struct {
	Day       int        `json:"day"`
	Materials []Material `json:"materials"`
	Focus     string     `json:"focus"`
}

// SearchResult is a scored keyword match.
type SearchResult struct {
	Material Material `json:"material"`
	Score    float64  `json:"score"`
}

// Catalog is a concurrency-safe, insertion-ordered material collection.
type Catalog struct {
	mu        sync.RWMutex
	materials []Material
	byID      map[string]int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID: make(map[string]int),
	}
}

// Add inserts a material. Duplicate IDs are rejected.
func (c *Catalog) Add(m Material) error {
	if m.ID == "" {
		return fmt.Errorf("material id cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[m.ID]; exists {
		return fmt.Errorf("duplicate material id: %s", m.ID)
	}
	c.byID[m.ID] = len(c.materials)
	c.materials = append(c.materials, m)
	return nil
}

// Get looks up a material by ID.
func (c *Catalog) Get(id string) (Material, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, exists := c.byID[id]
	if !exists {
		return Material{}, false
	}
	return c.materials[idx], true
}

// Len reports the catalog size.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.materials)
}

// Subjects returns the distinct subjects present, sorted.
func (c *Catalog) Subjects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var subjects []string
	for _, m := range c.materials {
		if !seen[m.Subject] {
			seen[m.Subject] = true
			subjects = append(subjects, m.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}

// Recommend picks up to limit materials for a subject, weakest skills first.
// Materials for skills the student scores lowest on come first; within a
// skill, the material whose difficulty sits closest to the current score
// wins. Unknown skills count as score zero.
func (c *Catalog) Recommend(subject string, proficiency map[string]float64, limit int) []Recommendation {
	if limit <= 0 {
		limit = 3
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	type candidate struct {
		material Material
		score    float64
		gap      float64
	}

	var candidates []candidate
	for _, m := range c.materials {
		if m.Subject != subject {
			continue
		}
		score := proficiency[m.Skill]
		candidates = append(candidates, candidate{
			material: m,
			score:    score,
			gap:      math.Abs(m.Difficulty - score),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].gap < candidates[j].gap
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, cand := range candidates {
		recs = append(recs, Recommendation{
			Material:   cand.material,
			SkillScore: cand.score,
			Reason:     recommendReason(cand.material.Skill, cand.score),
		})
	}
	return recs
}

func recommendReason(skill string, score float64) string {
	switch {
	case score < 2:
		return fmt.Sprintf("builds foundations in %s", skill)
	case score < 4:
		return fmt.Sprintf("strengthens %s", skill)
	default:
		return fmt.Sprintf("extends mastery of %s", skill)
	}
}

// StudyPlan assembles a plan of the requested length. Each day pairs the next
// recommended material with a practice companion when one exists, so a
// days-long plan walks the weakest skills in order.
func (c *Catalog) StudyPlan(subject string, proficiency map[string]float64, days int) []PlanDay {
	if days <= 0 {
		days = 5
	}

	recs := c.Recommend(subject, proficiency, days*2)

	plan := make([]PlanDay, 0, days)
	for day := 0; day < days; day++ {
		main := day * 2
		practice := day*2 + 1
		if main >= len(recs) {
			break
		}

		d := PlanDay{
			Day:       day + 1,
			Materials: []Material{recs[main].Material},
			Focus:     recs[main].Material.Skill,
		}
		if practice < len(recs) {
			d.Materials = append(d.Materials, recs[practice].Material)
		}
		plan = append(plan, d)
	}
	return plan
}

// ============================================================================
// KEYWORD SEARCH
// ============================================================================

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// tokenize lowercases and splits text into alphanumeric terms.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Search scores materials by term-frequency overlap between the query and
// each material's title, skill and body. Results are sorted by score, ties
// broken by catalog order. Filters restrict by subject and content type when
// non-empty.
func (c *Catalog) Search(query, subject, contentType string, limit int) []SearchResult {
	if limit <= 0 {
		limit = 5
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}
	querySet := make(map[string]int)
	for _, t := range queryTerms {
		querySet[t]++
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var results []SearchResult
	for _, m := range c.materials {
		if subject != "" && m.Subject != subject {
			continue
		}
		if contentType != "" && m.ContentType != contentType {
			continue
		}

		docTerms := tokenize(m.Title + " " + m.Skill + " " + m.Body)
		if len(docTerms) == 0 {
			continue
		}

		// Term frequency overlap normalized by document length
		overlap := 0
		for _, t := range docTerms {
			if querySet[t] > 0 {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		score := float64(overlap) / float64(len(docTerms))

		results = append(results, SearchResult{Material: m, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
