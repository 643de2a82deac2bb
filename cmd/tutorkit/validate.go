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

package main

import (
	"fmt"

	"github.com/tutorkit/tutorkit/pkg/config"
)

// ValidateCmd checks a configuration file without starting the service.
type ValidateCmd struct {
	Path string `arg:"" optional:"" help:"Config file to validate (defaults to --config)"`
}

func (v *ValidateCmd) Run(cli *CLI) error {
	path := v.Path
	if path == "" {
		path = cli.Config
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("Configuration is valid: %s\n", path)
	fmt.Printf("  name: %s\n", cfg.Name)
	fmt.Printf("  server: %s\n", cfg.Server.Address())
	fmt.Printf("  profile backend: %s\n", cfg.Profiles.Backend)
	fmt.Printf("  materials: %d\n", len(cfg.Content.Materials))
	return nil
}
