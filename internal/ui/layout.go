package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the width below which the command bar drops
	// descriptions and the file path.
	LayoutCompactWidth = 100

	// FilterPanelWidth is the width of the filter panel next to the main
	// content.
	FilterPanelWidth = 34
)

// Chrome lines around the main content: header, command bar and status line.
const chromeHeight = 3

// Timing constants.
const (
	// SpinnerInterval is the frame rate of the busy indicator.
	SpinnerInterval = 120 * time.Millisecond
)
