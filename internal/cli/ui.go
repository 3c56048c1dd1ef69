package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/trackplan/pkg/render"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - routes
	colorPurple = lipgloss.Color("141") // Purple - other agents
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
	colorTrack  = lipgloss.Color("180") // Tan - tracks
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// cellStyles colours each glyph of a painted grid.
var cellStyles = map[render.Kind]lipgloss.Style{
	render.KindStart:   lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
	render.KindGoal:    lipgloss.NewStyle().Bold(true).Foreground(colorRed),
	render.KindPending: lipgloss.NewStyle().Foreground(colorYellow),
	render.KindWall:    lipgloss.NewStyle().Foreground(colorGray),
	render.KindAgent:   lipgloss.NewStyle().Foreground(colorPurple),
	render.KindPath:    lipgloss.NewStyle().Bold(true).Foreground(colorBlue),
	render.KindVisited: lipgloss.NewStyle().Foreground(colorCyan),
	render.KindMarker:  lipgloss.NewStyle().Foreground(colorYellow),
	render.KindTrack:   lipgloss.NewStyle().Foreground(colorTrack),
	render.KindEmpty:   lipgloss.NewStyle().Foreground(colorDim),
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printPlanStats prints a one-line summary of a plan.
func printPlanStats(w io.Writer, cells, steps int, cost float64, cached bool) {
	parts := []string{fmt.Sprintf("%d cells", cells), fmt.Sprintf("cost %.2f", cost)}
	if steps > 0 {
		parts = append(parts, fmt.Sprintf("%d steps", steps))
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	rendered := make([]string, len(parts))
	for i, p := range parts {
		rendered[i] = StyleDim.Render(p)
	}
	fmt.Fprintln(w, "  "+strings.Join(rendered, StyleDim.Render(" · "))+StyleDim.Render(" · ")+statusStyle.Render(status))
}

func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Grid Output
// =============================================================================

// paintCell is a render.Painter that colours glyphs for the terminal.
func paintCell(k render.Kind, glyph string) string {
	if st, ok := cellStyles[k]; ok {
		return st.Render(glyph)
	}
	return glyph
}

// printScene draws the grid followed by its legend.
func printScene(w io.Writer, scene render.Scene) {
	if scene.Title != "" {
		fmt.Fprintln(w, StyleTitle.Render(scene.Title))
	}
	fmt.Fprint(w, render.Paint(scene, render.DefaultGlyphs, paintCell))

	var legend []string
	for _, k := range render.Present(scene) {
		legend = append(legend, paintCell(k, string(render.DefaultGlyphs[k]))+" "+StyleDim.Render(k.String()))
	}
	fmt.Fprintln(w, strings.Join(legend, "  "))
}
