package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/git-pkgs/depmeta/internal/core"
)

var (
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFCC00"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

// summary renders the one-line verdict banner.
func summary(v *core.Verdict) string {
	counts := dimStyle.Render(fmt.Sprintf("%d dependencies checked, %d failure(s), %d warning(s)",
		v.Checked, len(v.HardFailures), len(v.Warnings)))
	switch {
	case v.Failed():
		return errorStyle.Render("FAILED") + " " + counts
	case len(v.Warnings) > 0:
		return warnStyle.Render("PASSED WITH WARNINGS") + " " + counts
	default:
		return passStyle.Render("PASSED") + " " + counts
	}
}
