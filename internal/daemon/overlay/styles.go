package overlay

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim   = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorCyan  = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(0, 1)

	draggingBoxStyle = boxStyle.
				BorderForeground(colorWhite)

	degradedBoxStyle = boxStyle.
				BorderForeground(colorDim)

	selfStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	countStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	peerNameStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	activityStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)
)
