package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaxxstorm/semrel"
)

var (
	colorGreen  = lipgloss.Color("#50fa7b")
	colorYellow = lipgloss.Color("#f1fa8c")
	colorDim    = lipgloss.Color("#6272a4")
)

var (
	releaseStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	snapshotStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// renderSummary formats a one line description of a release decision.
func renderSummary(result *semrel.ReleaseVersion, prefix string) string {
	style := snapshotStyle
	tag := "no tag"
	if result.CreateTag {
		style = releaseStyle
		tag = "tag " + result.TagName(prefix)
	}

	parts := []string{
		style.Render(result.Version),
		detailStyle.Render("previous " + result.PreviousVersion),
		detailStyle.Render(string(result.Path)),
		detailStyle.Render(tag),
	}
	return strings.Join(parts, "  ")
}
