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

// Package config provides configuration types and loading for the tutoring
// orchestration service. This file contains the unified configuration entry
// point.
package config

import (
	"fmt"
)

// ============================================================================
// MAIN UNIFIED CONFIGURATION
// ============================================================================

// Config represents the complete configuration. A single YAML file is the
// entry point for all settings.
type Config struct {
	// Version and metadata
	Version     string            `yaml:"version,omitempty" json:"version,omitempty"`
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// Global settings
	Global GlobalSettings `yaml:"global,omitempty" json:"global,omitempty"`

	// HTTP server configuration
	Server ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`

	// Coordinator configuration
	Coordinator CoordinatorConfig `yaml:"coordinator,omitempty" json:"coordinator,omitempty"`

	// Student profile store configuration
	Profiles ProfileStoreConfig `yaml:"profiles,omitempty" json:"profiles,omitempty"`

	// Learning content catalog configuration
	Content ContentConfig `yaml:"content,omitempty" json:"content,omitempty"`

	// Document processing configuration
	Documents DocumentConfig `yaml:"documents,omitempty" json:"documents,omitempty"`
}

// Validate implements validation for Config.
func (c *Config) Validate() error {
	if err := c.Global.Validate(); err != nil {
		return fmt.Errorf("global settings validation failed: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := c.Coordinator.Validate(); err != nil {
		return fmt.Errorf("coordinator config validation failed: %w", err)
	}
	if err := c.Profiles.Validate(); err != nil {
		return fmt.Errorf("profile store config validation failed: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content config validation failed: %w", err)
	}
	if err := c.Documents.Validate(); err != nil {
		return fmt.Errorf("document config validation failed: %w", err)
	}
	return nil
}

// SetDefaults applies defaults for Config.
func (c *Config) SetDefaults() {
	if c.Name == "" {
		c.Name = "tutorkit"
	}
	c.Global.SetDefaults()
	c.Server.SetDefaults()
	c.Coordinator.SetDefaults()
	c.Profiles.SetDefaults()
	c.Content.SetDefaults()
	c.Documents.SetDefaults()
}

// ============================================================================
// GLOBAL SETTINGS
// ============================================================================

// GlobalSettings contains cross-cutting configuration.
type GlobalSettings struct {
	Logging       LoggingConfig       `yaml:"logging,omitempty" json:"logging,omitempty"`
	Observability ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

func (c *GlobalSettings) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability config validation failed: %w", err)
	}
	return nil
}

func (c *GlobalSettings) SetDefaults() {
	c.Logging.SetDefaults()
	c.Observability.SetDefaults()
}

// LoggingConfig controls slog initialization.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // simple, verbose
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	switch c.Format {
	case "", "simple", "verbose":
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	return nil
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// ObservabilityConfig controls metrics and tracing.
type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled,omitempty" json:"metrics_enabled,omitempty"`
	TracingEnabled bool `yaml:"tracing_enabled,omitempty" json:"tracing_enabled,omitempty"`
}

func (c *ObservabilityConfig) Validate() error {
	return nil
}

func (c *ObservabilityConfig) SetDefaults() {
	// Observability is opt-in
}

// ============================================================================
// SERVER CONFIGURATION
// ============================================================================

// ServerConfig contains the HTTP transport configuration.
type ServerConfig struct {
	Host    string `yaml:"host,omitempty" json:"host,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Address returns the host:port listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ============================================================================
// COORDINATOR CONFIGURATION
// ============================================================================

// CoordinatorConfig tunes dispatch behavior.
type CoordinatorConfig struct {
	// MaxChainDepth bounds follow-up chains within a single request.
	MaxChainDepth int `yaml:"max_chain_depth,omitempty" json:"max_chain_depth,omitempty"`

	// SessionHistoryLimit bounds per-session turn history.
	SessionHistoryLimit int `yaml:"session_history_limit,omitempty" json:"session_history_limit,omitempty"`
}

func (c *CoordinatorConfig) Validate() error {
	if c.MaxChainDepth < 1 {
		return fmt.Errorf("max_chain_depth must be at least 1, got %d", c.MaxChainDepth)
	}
	if c.SessionHistoryLimit < 1 {
		return fmt.Errorf("session_history_limit must be at least 1, got %d", c.SessionHistoryLimit)
	}
	return nil
}

func (c *CoordinatorConfig) SetDefaults() {
	if c.MaxChainDepth == 0 {
		// Longest designed chain is document processing -> understanding ->
		// skill development (3 steps) plus one slot of headroom.
		c.MaxChainDepth = 4
	}
	if c.SessionHistoryLimit == 0 {
		c.SessionHistoryLimit = 20
	}
}

// ============================================================================
// PROFILE STORE CONFIGURATION
// ============================================================================

// ProfileStoreConfig selects and configures the student profile backend.
type ProfileStoreConfig struct {
	// Backend: memory, sqlite, mysql, postgres
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"`

	// DSN is the database path (sqlite) or connection string (mysql/postgres).
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

func (c *ProfileStoreConfig) Validate() error {
	switch c.Backend {
	case "", "memory":
	case "sqlite", "mysql", "postgres":
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for backend %s", c.Backend)
		}
	default:
		return fmt.Errorf("unknown profile store backend: %s", c.Backend)
	}
	return nil
}

func (c *ProfileStoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

// ============================================================================
// CONTENT CATALOG CONFIGURATION
// ============================================================================

// MaterialConfig declares one learning material in the catalog.
type MaterialConfig struct {
	ID          string            `yaml:"id" json:"id"`
	Title       string            `yaml:"title" json:"title"`
	Subject     string            `yaml:"subject" json:"subject"`
	Skill       string            `yaml:"skill" json:"skill"`
	Difficulty  float64           `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	ContentType string            `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	Body        string            `yaml:"body,omitempty" json:"body,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

func (c *MaterialConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("material id is required")
	}
	if c.Subject == "" {
		return fmt.Errorf("material '%s' requires a subject", c.ID)
	}
	if c.Difficulty < 0 || c.Difficulty > 5 {
		return fmt.Errorf("material '%s' difficulty must be within [0, 5]", c.ID)
	}
	return nil
}

func (c *MaterialConfig) SetDefaults() {
	if c.ContentType == "" {
		c.ContentType = "text"
	}
}

// ContentConfig seeds the learning content catalog.
type ContentConfig struct {
	Materials []MaterialConfig `yaml:"materials,omitempty" json:"materials,omitempty"`
}

func (c *ContentConfig) Validate() error {
	seen := make(map[string]bool, len(c.Materials))
	for i := range c.Materials {
		if err := c.Materials[i].Validate(); err != nil {
			return fmt.Errorf("material at index %d: %w", i, err)
		}
		if seen[c.Materials[i].ID] {
			return fmt.Errorf("duplicate material id: %s", c.Materials[i].ID)
		}
		seen[c.Materials[i].ID] = true
	}
	return nil
}

func (c *ContentConfig) SetDefaults() {
	for i := range c.Materials {
		c.Materials[i].SetDefaults()
	}
}

// ============================================================================
// DOCUMENT PROCESSING CONFIGURATION
// ============================================================================

// DocumentConfig tunes document extraction.
type DocumentConfig struct {
	// MaxUploadBytes bounds the size of a single uploaded artifact.
	MaxUploadBytes int64 `yaml:"max_upload_bytes,omitempty" json:"max_upload_bytes,omitempty"`

	// TokenModel selects the tiktoken encoding used for token statistics.
	TokenModel string `yaml:"token_model,omitempty" json:"token_model,omitempty"`
}

func (c *DocumentConfig) Validate() error {
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes cannot be negative")
	}
	return nil
}

func (c *DocumentConfig) SetDefaults() {
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 16 << 20 // 16 MiB
	}
	if c.TokenModel == "" {
		c.TokenModel = "cl100k_base"
	}
}
