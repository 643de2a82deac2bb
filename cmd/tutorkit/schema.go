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
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/tutorkit/tutorkit/pkg/config"
)

// SchemaCmd prints the JSON schema of the configuration file, useful for
// editor integration and CI validation.
type SchemaCmd struct{}

func (s *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: false,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "TutorKit Configuration"
	schema.Description = "Configuration schema for the tutorkit service"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fmt.Println(string(data))
	return nil
}
