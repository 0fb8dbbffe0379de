// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides user experience components for the soundings CLI.
//
// This file contains report renderers that format run results for the
// terminal: aligned tables, key/value blocks, and the comparison verdict
// banner. Renderers return strings rather than printing, so commands can
// compose them. Machine mode produces tab-separated or key=value output
// suitable for scripting.
package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders headers and rows as an aligned text table. The result
// ends with a newline. Machine mode emits tab-separated lines instead.
func Table(headers []string, rows [][]string) string {
	if GetPersonality().Level == PersonalityMachine {
		var b strings.Builder
		b.WriteString(strings.Join(headers, "\t"))
		b.WriteByte('\n')
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		return b.String()
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(Styles.Subtitle.Render(pad(h, widths[i])))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteByte('\n')
	for i, w := range widths {
		b.WriteString(Styles.Muted.Render(strings.Repeat("─", w)))
		if i < len(widths)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteByte('\n')
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 && i < len(widths)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// KeyValues renders a titled block of aligned key/value pairs. Machine
// mode emits key=value lines with keys lowercased and underscored.
func KeyValues(title string, pairs [][2]string) string {
	if GetPersonality().Level == PersonalityMachine {
		var b strings.Builder
		for _, kv := range pairs {
			fmt.Fprintf(&b, "%s=%s\n", machineKey(kv[0]), kv[1])
		}
		return b.String()
	}

	width := 0
	for _, kv := range pairs {
		if len([]rune(kv[0])) > width {
			width = len([]rune(kv[0]))
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(Styles.Title.Render(title))
		b.WriteByte('\n')
	}
	for _, kv := range pairs {
		b.WriteString(Styles.Muted.Render(pad(kv[0], width)))
		b.WriteString("  ")
		b.WriteString(kv[1])
		b.WriteByte('\n')
	}
	return b.String()
}

// VerdictBanner renders the outcome of a model comparison
func VerdictBanner(favored string, logK float64, verdict string) string {
	if GetPersonality().Level == PersonalityMachine {
		return fmt.Sprintf("VERDICT: favored=%s log_k=%.4f strength=%s\n",
			favored, logK, machineKey(verdict))
	}

	content := fmt.Sprintf("%s %s\n%s %.4f\n%s %s",
		Styles.Muted.Render("Favored"), Styles.Highlight.Render(favored),
		Styles.Muted.Render("ln K   "), logK,
		Styles.Muted.Render("Verdict"), verdictStyle(verdict).Render(verdict))
	title := Styles.Title.Render(string(IconAnchor) + " Model comparison")
	return Styles.InfoBox.Width(40).Render(title+"\n"+content) + "\n"
}

// verdictStyle picks a color matching the strength of the evidence
func verdictStyle(verdict string) lipgloss.Style {
	switch verdict {
	case "strong", "very strong":
		return Styles.Success
	case "positive":
		return Styles.Subtitle
	case "indeterminate":
		return Styles.Warning
	default:
		return Styles.Bold
	}
}

// pad right-pads before styling so ANSI codes never skew column math
func pad(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func machineKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}
