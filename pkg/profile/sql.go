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

package profile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQL drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore implements Store using a SQL database. Per-student atomicity of
// the proficiency write path is handled by transactions.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// Schema creation SQL
const createProfilesSchemaSQL = `
CREATE TABLE IF NOT EXISTS student_profiles (
    student_id VARCHAR(255) PRIMARY KEY,
    name VARCHAR(255),
    grade_level INTEGER DEFAULT 0,
    learning_style VARCHAR(100),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

const createProficienciesSchemaSQL = `
CREATE TABLE IF NOT EXISTS proficiencies (
    student_id VARCHAR(255) NOT NULL,
    subject VARCHAR(255) NOT NULL,
    skill VARCHAR(255) NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (student_id, subject, skill)
)`

const createInteractionsSchemaSQL = `
CREATE TABLE IF NOT EXISTS interactions (
    id VARCHAR(255) NOT NULL,
    student_id VARCHAR(255) NOT NULL,
    subject VARCHAR(255),
    intent VARCHAR(100),
    summary TEXT,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (student_id, id)
)`

const createInteractionsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_interactions_student ON interactions(student_id, created_at)`

// NewSQLStore creates a SQL-backed profile store.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, NewStoreError("SQLStore", "NewSQLStore", "database connection is required", nil)
	}

	switch dialect {
	case "postgres", "mysql", "sqlite", "sqlite3":
		if dialect == "sqlite3" {
			dialect = "sqlite"
		}
	default:
		return nil, NewStoreError("SQLStore", "NewSQLStore",
			fmt.Sprintf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect), nil)
	}

	s := &SQLStore{
		db:      db,
		dialect: dialect,
	}

	if err := s.initSchema(); err != nil {
		return nil, NewStoreError("SQLStore", "NewSQLStore", "failed to initialize schema", err)
	}

	return s, nil
}

// Open opens a database connection for the given backend and DSN and wraps it
// in a SQLStore. Backend names match the config: sqlite, mysql, postgres.
func Open(backend, dsn string) (*SQLStore, error) {
	driver := backend
	if backend == "sqlite" {
		driver = "sqlite3"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, NewStoreError("SQLStore", "Open", "failed to open database", err)
	}

	store, err := NewSQLStore(db, backend)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// initSchema creates the required tables if they don't exist.
func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Execute each statement separately for SQLite compatibility
	statements := []string{
		createProfilesSchemaSQL,
		createProficienciesSchemaSQL,
		createInteractionsSchemaSQL,
		createInteractionsIndexSQL,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// LoadProfile fetches a profile, creating an empty row for unknown students.
func (s *SQLStore) LoadProfile(ctx context.Context, studentID string) (*Profile, error) {
	if studentID == "" {
		return nil, NewStoreError("SQLStore", "LoadProfile", "student id cannot be empty", nil)
	}

	p := newProfile(studentID, time.Now())

	row := s.db.QueryRowContext(ctx, s.selectProfileQuery(), studentID)
	var name, style sql.NullString
	var grade sql.NullInt64
	var createdAt, updatedAt time.Time
	err := row.Scan(&name, &grade, &style, &createdAt, &updatedAt)
	switch {
	case err == sql.ErrNoRows:
		if err := s.insertEmptyProfile(ctx, studentID, p.CreatedAt); err != nil {
			return nil, NewStoreError("SQLStore", "LoadProfile", "failed to create profile", err)
		}
	case err != nil:
		return nil, NewStoreError("SQLStore", "LoadProfile", "failed to query profile", err)
	default:
		p.Name = name.String
		p.GradeLevel = int(grade.Int64)
		p.LearningStyle = style.String
		p.CreatedAt = createdAt
		p.UpdatedAt = updatedAt
	}

	if err := s.loadProficiencies(ctx, p); err != nil {
		return nil, NewStoreError("SQLStore", "LoadProfile", "failed to load proficiencies", err)
	}
	if err := s.loadInteractions(ctx, p); err != nil {
		return nil, NewStoreError("SQLStore", "LoadProfile", "failed to load interactions", err)
	}

	return p, nil
}

func (s *SQLStore) loadProficiencies(ctx context.Context, p *Profile) error {
	rows, err := s.db.QueryContext(ctx, s.selectProficienciesQuery(), p.StudentID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var subject, skill string
		var score float64
		if err := rows.Scan(&subject, &skill, &score); err != nil {
			return err
		}
		if p.Proficiency[subject] == nil {
			p.Proficiency[subject] = make(map[string]float64)
		}
		p.Proficiency[subject][skill] = score
	}
	return rows.Err()
}

func (s *SQLStore) loadInteractions(ctx context.Context, p *Profile) error {
	rows, err := s.db.QueryContext(ctx, s.selectInteractionsQuery(), p.StudentID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var in Interaction
		var subject, intent, summary sql.NullString
		if err := rows.Scan(&in.ID, &subject, &intent, &summary, &in.Timestamp); err != nil {
			return err
		}
		in.Subject = subject.String
		in.Intent = intent.String
		in.Summary = summary.String
		p.Interactions = append(p.Interactions, in)
	}
	return rows.Err()
}

// SaveProfileDelta applies skill deltas inside a transaction so concurrent
// writers for the same student cannot interleave read-modify-write.
func (s *SQLStore) SaveProfileDelta(ctx context.Context, studentID, subject string, deltas map[string]float64) error {
	if studentID == "" {
		return NewStoreError("SQLStore", "SaveProfileDelta", "student id cannot be empty", nil)
	}
	if subject == "" {
		return NewStoreError("SQLStore", "SaveProfileDelta", "subject cannot be empty", nil)
	}
	if len(deltas) == 0 {
		return nil
	}

	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStoreError("SQLStore", "SaveProfileDelta", "failed to begin transaction", err)
	}
	defer tx.Rollback() // no-op after commit

	for skill, delta := range deltas {
		var score float64
		row := tx.QueryRowContext(ctx, s.selectScoreQuery(), studentID, subject, skill)
		err := row.Scan(&score)
		switch {
		case err == sql.ErrNoRows:
			score = clampScore(delta)
			if _, err := tx.ExecContext(ctx, s.insertScoreQuery(), studentID, subject, skill, score, now); err != nil {
				return NewStoreError("SQLStore", "SaveProfileDelta", "failed to insert score", err)
			}
		case err != nil:
			return NewStoreError("SQLStore", "SaveProfileDelta", "failed to read score", err)
		default:
			score = clampScore(score + delta)
			if _, err := tx.ExecContext(ctx, s.updateScoreQuery(), score, now, studentID, subject, skill); err != nil {
				return NewStoreError("SQLStore", "SaveProfileDelta", "failed to update score", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("SQLStore", "SaveProfileDelta", "failed to commit transaction", err)
	}
	return nil
}

// AppendInteraction records one interaction row.
func (s *SQLStore) AppendInteraction(ctx context.Context, studentID string, interaction Interaction) error {
	if studentID == "" {
		return NewStoreError("SQLStore", "AppendInteraction", "student id cannot be empty", nil)
	}

	ts := interaction.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.insertInteractionQuery(),
		interaction.ID, studentID, interaction.Subject, interaction.Intent, interaction.Summary, ts)
	if err != nil {
		return NewStoreError("SQLStore", "AppendInteraction", "failed to insert interaction", err)
	}
	return nil
}

func (s *SQLStore) insertEmptyProfile(ctx context.Context, studentID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, s.insertProfileQuery(), studentID, "", 0, "", now, now)
	return err
}

// ============================================================================
// DIALECT-SPECIFIC QUERIES
// ============================================================================

func (s *SQLStore) selectProfileQuery() string {
	switch s.dialect {
	case "postgres":
		return `SELECT name, grade_level, learning_style, created_at, updated_at
                FROM student_profiles WHERE student_id = $1`
	default:
		return `SELECT name, grade_level, learning_style, created_at, updated_at
                FROM student_profiles WHERE student_id = ?`
	}
}

func (s *SQLStore) insertProfileQuery() string {
	switch s.dialect {
	case "postgres":
		return `INSERT INTO student_profiles (student_id, name, grade_level, learning_style, created_at, updated_at)
                VALUES ($1, $2, $3, $4, $5, $6)`
	default:
		return `INSERT INTO student_profiles (student_id, name, grade_level, learning_style, created_at, updated_at)
                VALUES (?, ?, ?, ?, ?, ?)`
	}
}

func (s *SQLStore) selectProficienciesQuery() string {
	switch s.dialect {
	case "postgres":
		return `SELECT subject, skill, score FROM proficiencies WHERE student_id = $1 ORDER BY subject, skill`
	default:
		return `SELECT subject, skill, score FROM proficiencies WHERE student_id = ? ORDER BY subject, skill`
	}
}

func (s *SQLStore) selectInteractionsQuery() string {
	switch s.dialect {
	case "postgres":
		return `SELECT id, subject, intent, summary, created_at FROM interactions
                WHERE student_id = $1 ORDER BY created_at, id`
	default:
		return `SELECT id, subject, intent, summary, created_at FROM interactions
                WHERE student_id = ? ORDER BY created_at, id`
	}
}

func (s *SQLStore) selectScoreQuery() string {
	switch s.dialect {
	case "postgres":
		return `SELECT score FROM proficiencies WHERE student_id = $1 AND subject = $2 AND skill = $3`
	default:
		return `SELECT score FROM proficiencies WHERE student_id = ? AND subject = ? AND skill = ?`
	}
}

func (s *SQLStore) insertScoreQuery() string {
	switch s.dialect {
	case "postgres":
		return `INSERT INTO proficiencies (student_id, subject, skill, score, updated_at)
                VALUES ($1, $2, $3, $4, $5)`
	default:
		return `INSERT INTO proficiencies (student_id, subject, skill, score, updated_at)
                VALUES (?, ?, ?, ?, ?)`
	}
}

func (s *SQLStore) updateScoreQuery() string {
	switch s.dialect {
	case "postgres":
		return `UPDATE proficiencies SET score = $1, updated_at = $2
                WHERE student_id = $3 AND subject = $4 AND skill = $5`
	default:
		return `UPDATE proficiencies SET score = ?, updated_at = ?
                WHERE student_id = ? AND subject = ? AND skill = ?`
	}
}

func (s *SQLStore) insertInteractionQuery() string {
	switch s.dialect {
	case "postgres":
		return `INSERT INTO interactions (id, student_id, subject, intent, summary, created_at)
                VALUES ($1, $2, $3, $4, $5, $6)`
	default:
		return `INSERT INTO interactions (id, student_id, subject, intent, summary, created_at)
                VALUES (?, ?, ?, ?, ?, ?)`
	}
}

// Ensure SQLStore implements Store.
var _ Store = (*SQLStore)(nil)
