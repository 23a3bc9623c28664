package tui

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maildeck/maildeck/internal/core/domain"
)

// settingsModel shows the account, the ingestion toggle and backend
// health.
type settingsModel struct {
	deps  Deps
	theme theme

	toggle      domain.ToggleState
	toggleKnown bool
	toggling    bool
	errText     string

	health      domain.Health
	healthKnown bool
	healthErr   string
}

func newSettingsModel(deps Deps, th theme) settingsModel {
	return settingsModel{deps: deps, theme: th}
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case toggleMsg:
		m.toggling = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.toggle = msg.state
		m.toggleKnown = true
		return m, nil

	case healthMsg:
		if msg.err != nil {
			m.healthErr = msg.err.Error()
			m.healthKnown = false
			return m, nil
		}
		m.healthErr = ""
		m.health = msg.health
		m.healthKnown = true
		return m, nil
	}
	return m, nil
}

func (m settingsModel) updateKey(msg tea.KeyMsg, root Model) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "t":
		if !root.session.Authenticated() {
			m.errText = "sign in first"
			return m, nil
		}
		if root.snap.TogglePending {
			m.errText = "a toggle is already waiting for confirmation"
			return m, nil
		}
		if !root.snap.ToggleAllowed() {
			m.errText = "wait for the current ingestion run to finish"
			return m, nil
		}
		m.errText = ""
		m.toggling = true
		return m, root.toggleCmd(!m.toggle.Enabled)
	case "o":
		if root.session.Authenticated() {
			return m, root.logoutCmd()
		}
	case "h":
		return m, root.healthCmd()
	}
	return m, nil
}

func (m settingsModel) view(width, height int, session domain.Session, snap domain.IngestionSnapshot) string {
	var lines []string

	lines = append(lines, m.theme.subtitle.Render("Account"))
	switch {
	case session.Authenticated() && session.User != nil:
		lines = append(lines, m.theme.text.Render(session.User.Name)+"  "+m.theme.muted.Render(session.User.Email))
		lines = append(lines, m.theme.help.Render("o signs out"))
	case session.LoginPending:
		lines = append(lines, m.theme.warn.Render("Waiting for the browser sign-in..."))
	default:
		lines = append(lines, m.theme.muted.Render("Signed out."), m.theme.help.Render("i opens Google sign-in in your browser"))
	}

	lines = append(lines, "", m.theme.subtitle.Render("Ingestion"))
	if !snap.Confirmed {
		lines = append(lines, m.theme.muted.Render("status: waiting for first confirmation"))
	} else {
		lines = append(lines, m.theme.text.Render("status: "+string(snap.Status)))
	}
	autoLine := "automatic ingestion: "
	if m.toggleKnown {
		if m.toggle.Enabled {
			autoLine += "on"
		} else {
			autoLine += "off"
		}
	} else {
		autoLine += "unknown"
	}
	lines = append(lines, m.theme.text.Render(autoLine))
	if snap.TogglePending {
		lines = append(lines, m.theme.warn.Render("change pending, waiting for the next status check"))
	}
	if m.toggling {
		lines = append(lines, m.theme.muted.Render("writing toggle..."))
	}
	if m.toggle.Message != "" {
		lines = append(lines, m.theme.muted.Render(m.toggle.Message))
	}

	lines = append(lines, "", m.theme.subtitle.Render("Backend health"))
	switch {
	case m.healthErr != "":
		lines = append(lines, m.theme.danger.Render("unreachable: "+m.healthErr))
	case !m.healthKnown:
		lines = append(lines, m.theme.muted.Render("checking... (h refreshes)"))
	default:
		overall := m.theme.danger.Render(m.health.Status)
		if m.health.Healthy() {
			overall = m.theme.ok.Render(m.health.Status)
		}
		lines = append(lines, m.theme.text.Render("overall: ")+overall)
		names := make([]string, 0, len(m.health.Services))
		for name := range m.health.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := m.health.Services[name]
			style := m.theme.danger
			if state == "healthy" || state == "ok" || state == "connected" {
				style = m.theme.ok
			}
			lines = append(lines, m.theme.muted.Render("  "+name+": ")+style.Render(state))
		}
	}

	if m.errText != "" {
		lines = append(lines, "", m.theme.danger.Render(m.errText))
	}

	return m.theme.panel.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}
