package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	primary = lipgloss.Color("#22d3ee")
	muted   = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primary).Align(lipgloss.Center)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	winnerStyle = cellStyle.Bold(true).Foreground(lipgloss.Color("#10B981"))
	altStyle    = cellStyle.Foreground(muted)
)

// predictionTable renders one row per class; the predicted label is highlighted.
func predictionTable(classes []string, label string, confidence []float64) string {
	rows := make([][]string, 0, len(classes))
	for i, c := range classes {
		p := 0.0
		if i < len(confidence) {
			p = confidence[i]
		}
		rows = append(rows, []string{c, fmt.Sprintf("%.4f", p)})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(primary)).
		Headers("Class", "Confidence").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(classes) && classes[row] == label:
				return winnerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return altStyle
			}
		}).
		String()
}
