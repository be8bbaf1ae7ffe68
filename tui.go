package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	lineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	issueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	suggestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type proposalMsg struct {
	text string
	err  error
}

// resolverModel wraps a Session in a Bubble Tea program. All edits funnel
// through Update, so re-parses never interleave.
type resolverModel struct {
	session *Session
	dryRun  bool

	input    []rune
	status   string
	proposal string
	rows     []WeekRow
	quitErr  error
}

func newResolverModel(session *Session, dryRun bool) *resolverModel {
	m := &resolverModel{session: session, dryRun: dryRun}
	m.refreshRows()
	return m
}

func (m *resolverModel) refreshRows() {
	if m.session.State() == StateReady {
		rows, err := m.session.BuildRows()
		if err != nil {
			m.status = err.Error()
			return
		}
		m.rows = rows
	}
}

func (m *resolverModel) Init() tea.Cmd {
	return nil
}

func (m *resolverModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case proposalMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("llm: %v", msg.err)
		} else {
			m.proposal = msg.text
			m.status = "proposal ready; press tab to accept into input"
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		case tea.KeyTab:
			if m.proposal != "" {
				m.input = []rune(m.proposal)
			}
			return m, nil
		case tea.KeySpace:
			m.input = append(m.input, ' ')
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyRunes:
			m.input = append(m.input, msg.Runes...)
			return m, nil
		}
	}
	return m, nil
}

func (m *resolverModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(string(m.input))
	m.input = nil
	m.proposal = ""
	m.status = ""

	switch m.session.State() {
	case StateResolving:
		return m.handleResolveCommand(text)
	case StateReady:
		return m.handleReadyCommand(text)
	case StateSaving:
		return m.handleSaveConfirm(text)
	}
	return m, nil
}

func (m *resolverModel) handleResolveCommand(text string) (tea.Model, tea.Cmd) {
	line, issue, ok := m.session.CurrentIssue()
	if !ok {
		return m, nil
	}
	switch {
	case text == "" || text == "skip":
		m.session.NextIssue()
	case text == "drop":
		if err := m.session.DiscardLine(line.LineNum); err != nil {
			m.status = err.Error()
		}
	case text == "guess":
		return m, m.requestProposal(*line, *issue)
	case strings.HasPrefix(text, "alias "):
		from, to, err := splitAssignment(strings.TrimPrefix(text, "alias "))
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if issue.Kind == IssueUnknownBoss {
			err = m.session.AddBossAlias(from, to)
		} else {
			err = m.session.AddNameAlias(from, to)
		}
		if err != nil {
			m.status = err.Error()
		}
	case strings.HasPrefix(text, "boss "):
		name, pointsText, err := splitAssignment(strings.TrimPrefix(text, "boss "))
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		points, err := strconv.Atoi(pointsText)
		if err != nil {
			m.status = fmt.Sprintf("boss points %q: not a number", pointsText)
			return m, nil
		}
		if err := m.session.AddBoss(name, points); err != nil {
			m.status = err.Error()
		}
	default:
		// Anything else is the corrected line text.
		if err := m.session.EditLine(line.LineNum, text); err != nil {
			m.status = err.Error()
		}
	}
	m.refreshRows()
	return m, nil
}

func (m *resolverModel) handleReadyCommand(text string) (tea.Model, tea.Cmd) {
	if m.dryRun {
		return m, tea.Quit
	}
	switch text {
	case "", "save":
		needConfirm, err := m.session.RequestSave(false, time.Now())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if needConfirm {
			return m, nil
		}
		return m.finishSave()
	case "quit":
		return m, tea.Quit
	default:
		m.status = "type 'save' (or enter) to save, 'quit' to abandon"
	}
	return m, nil
}

func (m *resolverModel) handleSaveConfirm(text string) (tea.Model, tea.Cmd) {
	switch text {
	case "y", "yes":
		if err := m.session.ConfirmSave(time.Now()); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m.finishSave()
	default:
		m.session.CancelSave()
		m.status = "save cancelled"
	}
	return m, nil
}

func (m *resolverModel) finishSave() (tea.Model, tea.Cmd) {
	paths, err := m.session.Export()
	if err != nil {
		m.quitErr = err
	} else {
		m.status = okStyle.Render(fmt.Sprintf("saved week %s, wrote %d artifacts", m.session.WeekID(), len(paths)))
	}
	return m, tea.Quit
}

func (m *resolverModel) requestProposal(line ParsedLine, issue ParseIssue) tea.Cmd {
	cfg := m.session.cfg
	db := m.session.db
	return func() tea.Msg {
		roster, err := LoadRoster(db)
		if err != nil {
			return proposalMsg{err: err}
		}
		defs, err := LoadBosses(db)
		if err != nil {
			return proposalMsg{err: err}
		}
		bosses := make([]string, len(defs))
		for i, d := range defs {
			bosses[i] = d.Boss
		}
		text, err := SuggestCorrection(cfg, line, issue, roster, bosses)
		return proposalMsg{text: text, err: err}
	}
}

func (m *resolverModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("killfeed · %s · week %s", m.session.FileName(), m.session.WeekID())))
	b.WriteString("\n\n")

	switch m.session.State() {
	case StateResolving:
		line, issue, ok := m.session.CurrentIssue()
		if ok {
			b.WriteString(lineStyle.Render(fmt.Sprintf("line %d: %s", line.LineNum, line.Raw)))
			b.WriteString("\n")
			b.WriteString(issueStyle.Render(fmt.Sprintf("  %s: %s", issue.Kind, issue.Message)))
			b.WriteString("\n")
			if sugg := m.session.Suggestions(); len(sugg) > 0 {
				b.WriteString(suggestStyle.Render("  did you mean: " + strings.Join(sugg, ", ")))
				b.WriteString("\n")
			}
			if m.proposal != "" {
				b.WriteString(suggestStyle.Render("  llm proposal: " + m.proposal))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n> " + string(m.input) + "█\n")
		b.WriteString(footerStyle.Render(fmt.Sprintf(
			"issue %d/%d · line %d · enter=skip · <text>=replace line · alias a = b · boss name = pts · drop · guess",
			m.session.IssueIndex()+1, m.session.IssueCount(), lineNumOrZero(m.session))))
	case StateReady:
		b.WriteString(okStyle.Render(fmt.Sprintf("all clear: %d lines in scope", len(m.session.Parsed()))))
		b.WriteString("\n\n")
		for i, r := range m.rows {
			if i >= 15 {
				b.WriteString(suggestStyle.Render(fmt.Sprintf("  … %d more\n", len(m.rows)-i)))
				break
			}
			b.WriteString(fmt.Sprintf("  %-20s %5d  %s\n", r.Name, r.TotalPoints, r.Level))
		}
		b.WriteString("\n> " + string(m.input) + "█\n")
		if m.dryRun {
			b.WriteString(footerStyle.Render("dry run · enter to exit"))
		} else {
			b.WriteString(footerStyle.Render("enter=save · quit=abandon"))
		}
	case StateSaving:
		b.WriteString(issueStyle.Render(fmt.Sprintf("week %s already stored — overwrite? (y/n)", m.session.WeekID())))
		b.WriteString("\n\n> " + string(m.input) + "█\n")
	case StateSaved:
		b.WriteString(okStyle.Render("saved."))
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	return b.String()
}

func lineNumOrZero(s *Session) int {
	if line, _, ok := s.CurrentIssue(); ok {
		return line.LineNum
	}
	return 0
}

func splitAssignment(s string) (string, string, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected '<from> = <to>', got %q", s)
	}
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])
	if left == "" || right == "" {
		return "", "", fmt.Errorf("expected '<from> = <to>', got %q", s)
	}
	return left, right, nil
}

// RunResolver drives the interactive loop to completion.
func RunResolver(session *Session, dryRun bool) error {
	m := newResolverModel(session, dryRun)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.quitErr
}
