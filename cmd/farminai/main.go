// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command farminai is the FarminAI farm assistant.
//
// It serves the HTTP API and answers questions, keeps farm records and runs
// the crop planners straight from the terminal.
//
// # Usage
//
//	# Start the API server
//	farminai serve
//
//	# Ask a one-off question in Hindi
//	farminai ask --lang hi "How often should I water tomatoes?"
//
//	# Talk to the assistant
//	farminai chat
//
//	# Plan the monsoon season
//	farminai crops monsoon
//
// # Configuration
//
// Settings are read from ~/.farminai/farminai.yaml (created on first run) or
// the file named by --config. Environment variables such as OLLAMA_BASE_URL
// and REDIS_ADDR override the file.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
