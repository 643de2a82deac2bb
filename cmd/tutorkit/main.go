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

// Command tutorkit runs the tutoring orchestration service.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/tutorkit/tutorkit/pkg/config"
	"github.com/tutorkit/tutorkit/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Config   string `help:"Path to configuration file" short:"c" default:"tutorkit.yaml"`
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"info"`
	LogFile  string `help:"Write logs to file instead of stderr"`

	Serve    ServeCmd    `cmd:"" default:"1" help:"Start the tutoring service"`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file"`
	Schema   SchemaCmd   `cmd:"" help:"Print the configuration JSON schema"`
	Seed     SeedCmd     `cmd:"" help:"Seed the profile store with demo data"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tutorkit"),
		kong.Description("Multi-capability tutoring orchestration service"),
		kong.UsageOnError(),
	)

	config.LoadDotEnv()

	if err := initLogging(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogging(cli *CLI) error {
	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		return err
	}

	output := os.Stderr
	if cli.LogFile != "" {
		file, _, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	logger.Init(level, output, "simple")
	return nil
}

// loadConfig loads the configured file, falling back to defaults when the
// default path does not exist.
func loadConfig(cli *CLI) (*config.Config, error) {
	if _, err := os.Stat(cli.Config); err != nil {
		if os.IsNotExist(err) && cli.Config == "tutorkit.yaml" {
			slog.Info("No configuration file found, using defaults")
			return config.Default(), nil
		}
		return nil, fmt.Errorf("cannot read config file %s: %w", cli.Config, err)
	}
	return config.LoadFile(cli.Config)
}
