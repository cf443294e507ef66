package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under a header.
func (s Styles) Table(headers []string, rows [][]string) string {
	cell := s.renderer.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return cell
		})
	return t.Render()
}

// KeyValues renders two-column key/value rows.
func (s Styles) KeyValues(title string, pairs [][2]string) string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return s.Table([]string{title, ""}, rows)
}

// Println writes a rendered block followed by a newline.
func Println(w io.Writer, block string) error {
	_, err := fmt.Fprintln(w, block)
	return err
}

// Panel draws body inside a rounded border.
func (s Styles) Panel(body string) string {
	return s.renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1).
		Render(body)
}
