package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"

	separator = "──────────────────────────────────────────"
)

// Styles are bound to one writer so colors are dropped when it is not a terminal
type Styles struct {
	Pass     lipgloss.Style
	Warn     lipgloss.Style
	Fail     lipgloss.Style
	Muted    lipgloss.Style
	Category lipgloss.Style
}

func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Pass:     r.NewStyle().Foreground(ColorPass),
		Warn:     r.NewStyle().Foreground(ColorWarn),
		Fail:     r.NewStyle().Foreground(ColorFail),
		Muted:    r.NewStyle().Foreground(ColorMuted),
		Category: r.NewStyle().Bold(true).Foreground(ColorAccent),
	}
}

// Render writes a human-readable summary of the run
func Render(w io.Writer, result *model.CleanupResult, runErr error) error {
	if result == nil {
		result = &model.CleanupResult{}
	}
	st := NewStyles(w)

	var b strings.Builder

	mode := "dry-run"
	if result.Commit {
		mode = "delete"
	}
	fmt.Fprintf(&b, "%s %s\n", st.Category.Render("TEST CASE CLEANUP"), st.Muted.Render("("+mode+")"))
	b.WriteString(st.Muted.Render(separator) + "\n")

	if result.Project.Name != "" {
		fmt.Fprintf(&b, "  project:    %s\n", result.Project.Name)
	}
	fmt.Fprintf(&b, "  test cases: %d\n", result.Candidates)
	fmt.Fprintf(&b, "  no steps:   %d\n", result.Matching)
	if result.Commit {
		fmt.Fprintf(&b, "  deleted:    %d\n", result.Deleted)
	}

	if len(result.Items) > 0 {
		failed := make(map[int]bool, len(result.FailedIDs))
		for _, id := range result.FailedIDs {
			failed[id] = true
		}
		b.WriteString("\n")
		for _, it := range result.Items {
			line := fmt.Sprintf("[%d] %s", it.ID, it.Title)
			if failed[it.ID] {
				b.WriteString("  " + st.Fail.Render(IconFail+" "+line) + "\n")
			} else {
				b.WriteString("    " + line + "\n")
			}
		}
	}

	b.WriteString(st.Muted.Render(separator) + "\n")
	b.WriteString(statusLine(st, result, runErr) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func statusLine(st Styles, result *model.CleanupResult, runErr error) string {
	status := Status(result, runErr)
	if runErr != nil {
		return st.Fail.Render(IconFail + " " + status)
	}
	switch result.Outcome() {
	case model.OutcomeDryRun:
		return st.Warn.Render(IconWarn + " " + status)
	case model.OutcomeFailed:
		return st.Fail.Render(IconFail + " " + status)
	default:
		return st.Pass.Render(IconPass + " " + status)
	}
}
