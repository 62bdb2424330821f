package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/globe/pkg/compositor"
	"github.com/matzehuels/globe/pkg/geocode"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorBlue   = lipgloss.Color("75")  // Light blue - places
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StylePlace   = lipgloss.NewStyle().Foreground(colorBlue)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleBody        = lipgloss.NewStyle().Width(76)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Domain Output
// =============================================================================

// printFeature prints one search result on a line.
func printFeature(i int, f geocode.Feature) {
	fmt.Printf("%s %s %s\n",
		StyleNumber.Render(fmt.Sprintf("%2d.", i+1)),
		StylePlace.Render(f.DisplayName()),
		StyleDim.Render(fmt.Sprintf("(%s · %s)", f.Kind(), f.Center)))
}

// renderDescription styles a description: the bold first line becomes a
// title and the rest is wrapped.
func renderDescription(text string) string {
	head, body, _ := strings.Cut(text, "\n\n")
	if strings.HasPrefix(head, "**") && strings.HasSuffix(head, "**") && len(head) > 4 {
		return StyleTitle.Render(strings.Trim(head, "*")) + "\n\n" + styleBody.Render(body)
	}
	return styleBody.Render(text)
}

// printExport prints an export summary on a single line.
func printExport(res *compositor.Result, stats compositor.Stats) {
	parts := []string{
		fmt.Sprintf("%d×%d", res.Width, res.Height),
		fmt.Sprintf("scale %g", res.Scale),
		fmt.Sprintf("%d markers", stats.Markers),
		fmt.Sprintf("%d legend rows", stats.LegendRows),
		fmt.Sprintf("%d KiB", (stats.Bytes+1023)/1024),
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}
