// Package main provides the Docker container entrypoint
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func main() {
	// Get environment variables with defaults
	runType := getEnvWithDefault("RUN_TYPE", "rest")

	// Execute the appropriate binary based on RUN_TYPE
	switch runType {
	case "rest":
		if getEnvWithDefault("MIGRATE_ON_START", "false") == "true" {
			execBinary("/app/bin/db", "migrate")
		}
		execBinary("/app/bin/rest", "--auto-migrate=false")
	case "db":
		// DB_ARGS holds the subcommand, e.g. "reconcile --dry-run"
		execBinary("/app/bin/db", strings.Fields(getEnvWithDefault("DB_ARGS", "status"))...)
	default:
		fmt.Fprintf(os.Stderr, "Invalid RUN_TYPE. Must be either 'rest' or 'db'\n")
		fmt.Fprintf(os.Stderr, "Usage: RUN_TYPE=rest [MIGRATE_ON_START=true] | RUN_TYPE=db DB_ARGS=<command>\n")
		os.Exit(1)
	}
}

// getEnvWithDefault returns the environment variable value or the default if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// execBinary executes the specified binary with given arguments.
func execBinary(path string, args ...string) {
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute %s: %v\n", filepath.Base(path), err)
		os.Exit(1)
	}
}
