package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/commitcanvas/pkg/graph"
)

// List styles
var (
	listHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGold)
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command, an interactive commit browser
// over a graph JSON file produced by load.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <graph.json>",
		Short: "Browse a loaded commit graph interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			g, err := graph.UnmarshalGraph(data)
			if err != nil {
				return err
			}

			model := NewCommitListModel(g)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

// CommitListModel is the bubbletea model for the commit browser. Commits are
// shown newest first, matching the graph's score ordering.
type CommitListModel struct {
	Commits  []graph.Node
	Cursor   int
	Height   int
	Offset   int
	Expanded bool
}

// NewCommitListModel creates a commit list model over a loaded graph.
func NewCommitListModel(g graph.Graph) CommitListModel {
	return CommitListModel{
		Commits: g.Nodes,
		Height:  15,
	}
}

func (m CommitListModel) Init() tea.Cmd {
	return nil
}

func (m CommitListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Commits)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g":
			m.Cursor, m.Offset = 0, 0
		case "G":
			m.Cursor = len(m.Commits) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m CommitListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Commit History"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Commits) == 0 {
		b.WriteString(listDimStyle.Render("  (no commits)"))
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Commits) {
		end = len(m.Commits)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Commits[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		mark := ""
		switch {
		case n.Head:
			mark = "HEAD"
		case n.Relative:
			mark = "•"
		}

		rows = append(rows, []string{
			cursor,
			shortHash(n.Hash),
			fmt.Sprintf("%d", n.Score),
			mark,
			truncate(n.Subject, 48),
			commitAge(n.When),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Commit", "Score", "", "Subject", "Age").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Commits) {
				return lipgloss.NewStyle()
			}
			n := m.Commits[idx]

			base := lipgloss.NewStyle()
			if n.Head {
				base = listHeadStyle
			} else if !n.Relative {
				base = listDimStyle
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Expanded {
		b.WriteString(m.detailView())
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Commits))))
	return b.String()
}

// detailView renders the selected commit's metadata block.
func (m CommitListModel) detailView() string {
	n := m.Commits[m.Cursor]
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + StyleValue.Render(n.Hash) + "\n")
	if n.Author != "" {
		b.WriteString("  " + listDimStyle.Render("author  ") + StyleValue.Render(n.Author))
		if n.Email != "" {
			b.WriteString(listDimStyle.Render(" <"+n.Email+">"))
		}
		b.WriteString("\n")
	}
	if !n.When.IsZero() {
		b.WriteString("  " + listDimStyle.Render("date    ") + StyleValue.Render(n.When.Format(time.RFC1123)) + "\n")
	}
	b.WriteString("  " + listDimStyle.Render("score   ") + StyleValue.Render(fmt.Sprintf("%d", n.Score)) + "\n")
	if len(n.Refs) > 0 {
		b.WriteString("  " + listDimStyle.Render("refs    ") + StyleSuccess.Render(strings.Join(n.Refs, ", ")) + "\n")
	}
	if n.Subject != "" {
		b.WriteString("\n  " + StyleValue.Render(n.Subject) + "\n")
	}
	return b.String()
}

// shortHash abbreviates a full hash for display.
func shortHash(h string) string {
	if len(h) <= 8 {
		return h
	}
	return h[:8]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func commitAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
