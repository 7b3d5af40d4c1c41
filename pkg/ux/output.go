// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the FarminAI CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// FarminAI color palette - field greens and harvest golds
var (
	ColorLeafBright = lipgloss.Color("#7BC96F") // Bright leaf - highlights, success
	ColorLeaf       = lipgloss.Color("#4E9F3D") // Primary green - main brand color
	ColorMoss       = lipgloss.Color("#2F6D3A") // Moss - borders, accents
	ColorSoil       = lipgloss.Color("#6B5B4B") // Soil - muted text, borders

	ColorSuccess = lipgloss.Color("#7BC96F")
	ColorWarning = lipgloss.Color("#E9B949") // Harvest gold
	ColorError   = lipgloss.Color("#D9534F")
	ColorMuted   = lipgloss.Color("#6B5B4B")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorLeafBright),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorMuted),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorLeafBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMoss).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
	IconSprout  Icon = "🌱"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// =============================================================================
// Output Writers
// =============================================================================

var (
	outMu  sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects regular and diagnostic output. Nil keeps the current
// writer. It returns a function restoring the previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	outMu.Lock()
	defer outMu.Unlock()
	prevOut, prevErr := stdout, stderr
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
	return func() {
		outMu.Lock()
		defer outMu.Unlock()
		stdout, stderr = prevOut, prevErr
	}
}

func printOut(format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(stdout, format, args...)
}

func printErr(format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(stderr, format, args...)
}

// =============================================================================
// Print helpers that respect personality level
// =============================================================================

// Title prints a styled title
func Title(text string) {
	if GetPersonality() == PersonalityMachine {
		return
	}
	printOut("%s\n", Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	switch GetPersonality() {
	case PersonalityMachine:
		printOut("OK: %s\n", text)
	case PersonalityMinimal:
		printOut("%s %s\n", IconSuccess, text)
	default:
		printOut("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func Warning(text string) {
	switch GetPersonality() {
	case PersonalityMachine:
		printErr("WARN: %s\n", text)
	case PersonalityMinimal:
		printOut("%s %s\n", IconWarning, text)
	default:
		printOut("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func Error(text string) {
	switch GetPersonality() {
	case PersonalityMachine:
		printErr("ERROR: %s\n", text)
	case PersonalityMinimal:
		printOut("%s %s\n", IconError, text)
	default:
		printOut("%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func Info(text string) {
	if GetPersonality() == PersonalityFull {
		printOut("%s %s\n", Styles.Muted.Render("│"), text)
		return
	}
	printOut("%s\n", text)
}

// Muted prints muted/secondary text
func Muted(text string) {
	if GetPersonality() == PersonalityMachine {
		return
	}
	printOut("%s\n", Styles.Muted.Render(text))
}

// Box prints text in a rounded box
func Box(title, content string) {
	if GetPersonality() != PersonalityFull {
		printOut("%s: %s\n", title, content)
		return
	}
	printOut("%s\n", Styles.Box.Width(72).Render(Styles.Title.Render(title)+"\n"+content))
}

// WarningBox prints text in a warning-styled box
func WarningBox(title, content string) {
	if GetPersonality() != PersonalityFull {
		printErr("WARN %s: %s\n", title, content)
		return
	}
	printOut("%s\n", Styles.WarningBox.Width(72).Render(Styles.Warning.Bold(true).Render(title)+"\n"+content))
}

// Table prints rows under headers. Machine output is tab-separated with the
// header line first.
func Table(headers []string, rows [][]string) {
	if GetPersonality() != PersonalityFull {
		var b strings.Builder
		b.WriteString(strings.Join(headers, "\t"))
		b.WriteByte('\n')
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		printOut("%s", b.String())
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMoss)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Bold.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	printOut("%s\n", t.String())
}

// KeyValues prints aligned "key: value" lines in order.
func KeyValues(pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		if GetPersonality() == PersonalityMachine {
			printOut("%s=%s\n", p[0], p[1])
			continue
		}
		key := fmt.Sprintf("%-*s", width, p[0])
		printOut("%s  %s\n", Styles.Muted.Render(key), p[1])
	}
}
