package transitrelay

import (
	"fmt"
	"strings"
)

// FormatText renders a snapshot for terminals and the display client's
// text mode.
func FormatText(s *Snapshot) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("TRAIN: %s", s.Train))
	lines = append(lines, strings.Repeat("-", 30))
	lines = append(lines, fmt.Sprintf("Status: %s", s.Status))

	if s.StatusType == StatusTypeMaintenance {
		lines = append(lines, "   This is scheduled maintenance/construction work")
	}

	lines = append(lines, fmt.Sprintf("Active trips: %d", s.ActiveTrips))

	lines = appendSection(lines, "Planned Work", s.PlannedWork)
	lines = appendSection(lines, "Service Changes", s.ServiceChanges)
	lines = appendSection(lines, "Delays", s.Delays)

	return strings.Join(lines, "\n")
}

func appendSection(lines []string, title string, items []string) []string {
	if len(items) == 0 {
		return lines
	}
	lines = append(lines, fmt.Sprintf("%s (%d items):", title, len(items)))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("   - %s", item))
	}
	return lines
}
