package bandctl

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/internal/domain/scoring"
	"github.com/okian/bandboard/internal/domain/table"
)

var (
	// Styles
	seasonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	schoolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// RenderSeasons draws every season's competition tables.
func RenderSeasons(seasons []table.Season) string {
	var b strings.Builder
	for _, s := range seasons {
		b.WriteString(seasonStyle.Render(s.Title))
		b.WriteByte('\n')
		for _, t := range s.Tables {
			b.WriteString(RenderTable(t))
		}
	}
	return b.String()
}

// RenderTable draws one competition: a heading, then School and the 24 cells.
func RenderTable(t table.Table) string {
	headers := make([]string, 0, model.CellCount+1)
	headers = append(headers, "School")
	for i := 1; i <= model.CellCount; i++ {
		headers = append(headers, strconv.Itoa(i))
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, append([]string{r.School}, r.Cells...))
	}

	tbl := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerCellStyle
			case col == 0:
				return schoolStyle
			default:
				return cellStyle
			}
		})

	return headingStyle.Render(t.Heading) + "\n" + tbl.String() + "\n"
}

// RenderTrend draws one caption's trend as a date/average table.
func RenderTrend(t scoring.Trend) string {
	rows := make([][]string, 0, len(t.Labels))
	for i, label := range t.Labels {
		rows = append(rows, []string{label, strconv.FormatFloat(t.Data[i], 'f', 3, 64)})
	}
	tbl := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Date", string(t.Caption)).
		Rows(rows...)
	return headingStyle.Render(string(t.Caption)+" trend") + "\n" + tbl.String() + "\n"
}
