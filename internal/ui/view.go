package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderMain renders the header, the profile form and the footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderIdentity())
	b.WriteString("\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	if m.showLogs {
		b.WriteString(m.renderDiagnostics())
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	status := "idle"
	if m.session != nil {
		status = m.session.State().String()
	}
	if m.snapshot.IsOffline() {
		status = "offline"
	}

	parts := []string{
		styles.Logo.Render("shutter"),
		styles.StatusStyle(status).Render(strings.ToUpper(status)),
	}
	if n := m.pendingTotal(); n > 0 {
		label := fmt.Sprintf("%s saving %d", m.spinner.View(), n)
		parts = append(parts, styles.StatusStyle("saving").Render(label))
	}
	if !m.snapshot.LastSynced.IsZero() {
		parts = append(parts, styles.MutedText.Render("synced "+m.snapshot.LastSynced.Format("15:04:05")))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderIdentity() string {
	styles := m.theme.Styles()
	if !m.snapshot.HasProfile {
		if m.snapshot.LastError != nil {
			return styles.DangerText.Render("Cannot load profile: " + m.snapshot.LastError.Error())
		}
		return styles.MutedText.Render("Loading profile...")
	}

	p := m.snapshot.Profile
	line := styles.Text.Bold(true).Render(p.Name) + "  " + styles.MutedText.Render(p.ID)
	if p.Verified {
		line += "  " + styles.SuccessText.Render("verified")
	}
	if p.AvatarURL != "" {
		line += "\n" + styles.FaintText.Render("avatar ") + styles.AccentText.Render(p.AvatarURL)
	}
	if m.snapshot.LastError != nil {
		line += "\n" + styles.WarningText.Render(fmt.Sprintf("refresh failing (%d): %v", m.snapshot.ConsecutiveFailures, m.snapshot.LastError))
	}
	return line
}

func (m Model) renderForm() string {
	styles := m.theme.Styles()
	labelStyle := styles.MutedText.Width(14)

	var b strings.Builder
	for i := range m.inputs {
		f := field(i)
		label := fieldLabels[f]
		if f == m.focused {
			label = styles.AccentText.Width(14).Render(label)
		} else {
			label = labelStyle.Render(label)
		}
		b.WriteString(label)
		b.WriteString(m.inputs[f].View())
		if msg := m.fieldErrors[fieldKeys[f]]; msg != "" {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().PaddingLeft(14).Render(styles.DangerText.Render(msg)))
		}
		if i < len(m.inputs)-1 {
			b.WriteString("\n")
		}
	}

	panel := styles.Panel
	if m.dirty {
		panel = styles.FocusedPanel
	}
	if m.width > 4 {
		panel = panel.Width(m.width - 2)
	}
	return panel.Render(b.String())
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()

	var msg string
	switch {
	case m.message == "":
	case m.messageErr:
		msg = styles.DangerText.Render(m.message)
	default:
		msg = styles.Text.Render(m.message)
	}

	hints := []string{}
	for _, k := range []struct{ key, desc string }{
		{m.keys.Save.Help().Key, "save"},
		{m.keys.Upload.Help().Key, "upload"},
		{m.keys.Refresh.Help().Key, "refetch"},
		{m.keys.Discard.Help().Key, "discard"},
		{m.keys.Help.Help().Key, "help"},
	} {
		hints = append(hints, styles.WarningText.Render(k.key)+" "+styles.MutedText.Render(k.desc))
	}

	footer := strings.Join(hints, "  ")
	if msg != "" {
		footer = msg + "\n" + footer
	}
	return styles.Footer.Width(m.width).Render(footer)
}

func (m Model) renderDiagnostics() string {
	styles := m.theme.Styles()

	var body string
	switch {
	case m.logPath == "":
		body = styles.MutedText.Render("no diagnostics log; start with -log <file>")
	case m.logErr != nil:
		body = styles.DangerText.Render(m.logErr.Error())
	case len(m.logLines) == 0:
		body = styles.MutedText.Render("log is empty")
	default:
		body = styles.FaintText.Render(strings.Join(m.logLines, "\n"))
	}

	title := styles.AccentText.Bold(true).Render("Diagnostics")
	panel := styles.Panel
	if m.width > 4 {
		panel = panel.Width(m.width - 2)
	}
	return panel.Render(title + "\n" + body)
}
