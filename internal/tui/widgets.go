// Package tui renders the live stage view shown while a job runs.
package tui

import "github.com/charmbracelet/lipgloss"

// Kartoza colour palette
var (
	ColorOrange = lipgloss.Color("#DDA036") // Primary/Active
	ColorGray   = lipgloss.Color("#9A9EA0") // Inactive/Subtle
	ColorWhite  = lipgloss.Color("#FFFFFF") // Text
	ColorRed    = lipgloss.Color("#E95420") // Error
	ColorGreen  = lipgloss.Color("#4CAF50") // Success
)
