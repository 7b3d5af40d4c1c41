// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AleutianAI/FarminAI/pkg/config"
	"github.com/AleutianAI/FarminAI/pkg/logging"
	"github.com/AleutianAI/FarminAI/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath       string
	verbose          bool
	personalityLevel string

	// Loaded by the root PersistentPreRunE.
	cfg    config.FarminConfig
	logger *logging.Logger

	askLanguage  string
	askSession   string
	askAudio     string
	chatLanguage string

	servePort    int
	serveNoLimit bool

	recordDate string

	profitCrop       string
	profitInvestment float64
	profitBags       int
	profitPrice      float64

	detectKind string

	rootCmd = &cobra.Command{
		Use:   "farminai",
		Short: "A farm assistant for questions, records and crop planning",
		Long: `FarminAI answers farming questions with a local language model,
keeps dairy, poultry and crop records, and suggests crops by season,
weather and expected profit.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the FarminAI HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	// --- Assistant ---
	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a single question",
		RunE:  runAsk, // Defined in cmd_ask.go
	}
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation with the assistant",
		Args:  cobra.NoArgs,
		RunE:  runChat, // Defined in cmd_ask.go
	}

	// --- Records ---
	recordsCmd = &cobra.Command{
		Use:   "records",
		Short: "Keep dairy, poultry and crop records",
	}
	recordsAddCmd = &cobra.Command{
		Use:   "add <dairy|poultry|crop> <detail...>",
		Short: "Add a record",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRecordsAdd, // Defined in cmd_records.go
	}
	recordsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		Args:  cobra.NoArgs,
		RunE:  runRecordsList, // Defined in cmd_records.go
	}

	// --- Planners ---
	cropsCmd = &cobra.Command{
		Use:   "crops <season>",
		Short: "Suggest crops for a season",
		Args:  cobra.ExactArgs(1),
		RunE:  runCrops, // Defined in cmd_planner.go
	}
	profitCmd = &cobra.Command{
		Use:   "profit",
		Short: "Estimate the profit of a harvest",
		Args:  cobra.NoArgs,
		RunE:  runProfit, // Defined in cmd_planner.go
	}
	profitCompareCmd = &cobra.Command{
		Use:   "compare <file.csv|->",
		Short: "Compare crops from Crop,Investment,Bags,Price lines",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfitCompare, // Defined in cmd_planner.go
	}
	weatherCmd = &cobra.Command{
		Use:   "weather <district>",
		Short: "Recommend crops from a district's forecast",
		Args:  cobra.ExactArgs(1),
		RunE:  runWeather, // Defined in cmd_planner.go
	}

	// --- Disease detection ---
	detectCmd = &cobra.Command{
		Use:   "detect <image>",
		Short: "Classify a poultry or crop disease photo",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetect, // Defined in cmd_ask.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to farminai.yaml (default ~/.farminai/farminai.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "output", "",
		"Output style: full, minimal or machine (default: detect from terminal)")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override server.port")
	serveCmd.Flags().BoolVar(&serveNoLimit, "no-rate-limit", false, "Disable the per-session ask limiter")

	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askLanguage, "lang", "l", "en", "Answer language (ISO 639-1 code)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "Continue a conversation by session id")
	askCmd.Flags().StringVar(&askAudio, "audio", "", "Transcribe the question from an audio file")

	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatLanguage, "lang", "l", "en", "Answer language (ISO 639-1 code)")

	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsAddCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsAddCmd.Flags().StringVar(&recordDate, "date", "", "Record date as YYYY-MM-DD (default today)")

	rootCmd.AddCommand(cropsCmd)
	rootCmd.AddCommand(profitCmd)
	profitCmd.AddCommand(profitCompareCmd)
	profitCmd.Flags().StringVar(&profitCrop, "crop", "", "Crop name")
	profitCmd.Flags().Float64Var(&profitInvestment, "investment", 0, "Total investment")
	profitCmd.Flags().IntVar(&profitBags, "bags", 0, "Bags harvested")
	profitCmd.Flags().Float64Var(&profitPrice, "price", 0, "Selling price per bag")
	rootCmd.AddCommand(weatherCmd)

	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringVar(&detectKind, "kind", "crop", "Model to use: poultry or crop")
}

// setup loads the configuration and installs logging before any command.
func setup(cmd *cobra.Command, _ []string) error {
	if personalityLevel != "" {
		ux.SetPersonality(ux.ParsePersonalityLevel(personalityLevel))
	} else {
		ux.InitPersonality()
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	level := logging.ParseLevel(cfg.Telemetry.LogLevel)
	if verbose {
		level = slog.LevelDebug
	} else if cmd != serveCmd && level < slog.LevelWarn {
		// One-shot commands keep the terminal for answers.
		level = slog.LevelWarn
	}
	l, err := logging.New(logging.Config{
		Level:   level,
		JSON:    cmd == serveCmd && !ux.IsTerminal(os.Stderr),
		Console: cmd.ErrOrStderr(),
		LogDir:  cfg.Telemetry.LogDir,
		Service: cfg.Telemetry.ServiceName,
	})
	logger = l
	logger.Install()
	if err != nil {
		slog.Warn("File logging disabled", "error", err)
	}
	return nil
}
