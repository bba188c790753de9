// Package ui renders the installer's terminal output: the device table for
// the list command and the marked status lines.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/archon-install/archon/internal/disk"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// ErrorLine renders the single clearly marked failure line printed before
// a non-zero exit.
func ErrorLine(err error) string {
	return failStyle.Render("[FAILED] ") + err.Error()
}

// DoneLine renders the completion marker for a phase.
func DoneLine(msg string) string {
	return okStyle.Render("[OK] ") + msg
}

// DeviceTable renders the candidate installation targets.
func DeviceTable(devices []disk.BlockDevice) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %10s  %s", "DEVICE", "SIZE", "MODEL")))
	b.WriteByte('\n')
	for _, d := range devices {
		line := fmt.Sprintf("%-12s %7d GiB  %s", d.Path, d.SizeGiB(), strings.TrimSpace(d.Model))
		if d.SizeBytes < disk.MinDiskBytes {
			line += dimStyle.Render("  (below 40 GiB minimum)")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
