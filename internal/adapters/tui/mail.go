package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/infrastructure/extract"
)

type mailMode int

const (
	mailModeList mailMode = iota
	mailModeDetail
	mailModeCompose
)

type mailModel struct {
	deps  Deps
	theme theme

	width  int
	height int

	mode mailMode

	loaded  bool
	loading bool
	errText string

	filter domain.EmailFilter
	page   domain.EmailPage
	cursor int

	labels   []domain.Label
	labelIdx int

	searchInput textinput.Model
	searching   bool

	detail   domain.Email
	thread   []domain.Email
	bodyView viewport.Model

	compose       textarea.Model
	composeFor    string
	generatedText string
	drafting      bool
	sending       bool
}

func newMailModel(deps Deps, th theme) mailModel {
	search := textinput.New()
	search.Placeholder = "search subject or sender"
	search.CharLimit = 120

	compose := textarea.New()
	compose.Placeholder = "Write your reply..."
	compose.CharLimit = 0

	return mailModel{
		deps:  deps,
		theme: th,
		filter: domain.EmailFilter{
			UnreadOnly: deps.UnreadOnly,
			Limit:      deps.PageLimit,
		},
		labelIdx:    -1,
		searchInput: search,
		compose:     compose,
		bodyView:    viewport.New(0, 0),
	}
}

func (m *mailModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.bodyView.Width = width - 6
	m.bodyView.Height = height - 6
	if m.bodyView.Height < 3 {
		m.bodyView.Height = 3
	}
	m.compose.SetWidth(width - 6)
	m.compose.SetHeight(height - 8)
}

// capturing reports whether a text input owns the keyboard.
func (m mailModel) capturing() bool {
	return m.searching || m.mode == mailModeCompose
}

func (m mailModel) update(msg tea.Msg) (mailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case emailsMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.loaded = true
		m.errText = ""
		m.page = msg.page
		if m.cursor >= len(m.page.Emails) {
			m.cursor = len(m.page.Emails) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case emailDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.mode = mailModeDetail
		m.detail = msg.email
		m.thread = msg.thread
		m.bodyView.SetContent(renderEmailBody(msg.email.Body))
		m.bodyView.GotoTop()
		return m, nil

	case labelsMsg:
		if msg.err == nil {
			m.labels = msg.labels
		}
		return m, nil

	case draftMsg:
		m.drafting = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			m.mode = mailModeDetail
			return m, nil
		}
		m.errText = ""
		m.generatedText = msg.content
		m.compose.SetValue(msg.content)
		return m, m.compose.Focus()

	case replyMsg:
		m.sending = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.mode = mailModeDetail
		m.compose.Reset()
		m.compose.Blur()
		m.generatedText = ""
		return m, nil
	}
	return m, nil
}

func (m mailModel) updateKey(msg tea.KeyMsg, root Model) (mailModel, tea.Cmd) {
	if m.searching {
		return m.updateSearchKey(msg, root)
	}
	switch m.mode {
	case mailModeCompose:
		return m.updateComposeKey(msg, root)
	case mailModeDetail:
		return m.updateDetailKey(msg, root)
	default:
		return m.updateListKey(msg, root)
	}
}

func (m mailModel) updateListKey(msg tea.KeyMsg, root Model) (mailModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.page.Emails)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.page.Emails) {
			m.loading = true
			return m, root.emailDetailCmd(m.page.Emails[m.cursor].ID)
		}
	case "u":
		m.filter.UnreadOnly = !m.filter.UnreadOnly
		return m.reload(root)
	case "l":
		m.cycleLabel()
		return m.reload(root)
	case "/":
		m.searching = true
		m.searchInput.SetValue(m.filter.Search)
		return m, m.searchInput.Focus()
	case "n":
		if m.filter.Offset+m.filter.Limit < m.page.Total {
			m.filter.Offset += m.filter.Limit
			return m.reloadKeepOffset(root)
		}
	case "p":
		if m.filter.Offset > 0 {
			m.filter.Offset -= m.filter.Limit
			if m.filter.Offset < 0 {
				m.filter.Offset = 0
			}
			return m.reloadKeepOffset(root)
		}
	case "r":
		return m.reloadKeepOffset(root)
	}
	return m, nil
}

func (m mailModel) updateSearchKey(msg tea.KeyMsg, root Model) (mailModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		m.filter.Search = strings.TrimSpace(m.searchInput.Value())
		return m.reload(root)
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m mailModel) updateDetailKey(msg tea.KeyMsg, root Model) (mailModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.mode = mailModeList
		return m, nil
	case "r":
		m.mode = mailModeCompose
		m.composeFor = m.detail.ID
		m.generatedText = ""
		m.compose.Reset()
		return m, m.compose.Focus()
	case "g":
		m.mode = mailModeCompose
		m.composeFor = m.detail.ID
		m.drafting = true
		m.compose.Reset()
		return m, root.generateDraftCmd(m.detail.ID)
	}
	var cmd tea.Cmd
	m.bodyView, cmd = m.bodyView.Update(msg)
	return m, cmd
}

func (m mailModel) updateComposeKey(msg tea.KeyMsg, root Model) (mailModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = mailModeDetail
		m.compose.Blur()
		return m, nil
	case "ctrl+s":
		content := m.compose.Value()
		if strings.TrimSpace(content) == "" {
			m.errText = "reply is empty"
			return m, nil
		}
		m.sending = true
		useGenerated := m.generatedText != "" && content == m.generatedText
		return m, root.sendReplyCmd(m.composeFor, content, useGenerated)
	}
	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m *mailModel) cycleLabel() {
	if len(m.labels) == 0 {
		return
	}
	m.labelIdx++
	if m.labelIdx >= len(m.labels) {
		m.labelIdx = -1
	}
	if m.labelIdx < 0 {
		m.filter.Label = ""
	} else {
		m.filter.Label = m.labels[m.labelIdx].Name
	}
}

func (m mailModel) reload(root Model) (mailModel, tea.Cmd) {
	m.filter.Offset = 0
	return m.reloadKeepOffset(root)
}

func (m mailModel) reloadKeepOffset(root Model) (mailModel, tea.Cmd) {
	m.loading = true
	return m, root.listEmailsCmd(m.filter)
}

func (m mailModel) view(width, height int) string {
	switch m.mode {
	case mailModeDetail:
		return m.viewDetail(width, height)
	case mailModeCompose:
		return m.viewCompose(width, height)
	default:
		return m.viewList(width, height)
	}
}

func (m mailModel) viewList(width, height int) string {
	var header []string
	if m.filter.UnreadOnly {
		header = append(header, m.theme.subtitle.Render("unread"))
	} else {
		header = append(header, m.theme.muted.Render("all mail"))
	}
	if m.filter.Label != "" {
		header = append(header, m.theme.subtitle.Render("label: "+m.filter.Label))
	}
	if m.filter.Search != "" {
		header = append(header, m.theme.subtitle.Render("search: "+m.filter.Search))
	}
	header = append(header, m.theme.muted.Render(fmt.Sprintf("%d-%d of %d",
		m.filter.Offset+1, m.filter.Offset+len(m.page.Emails), m.page.Total)))
	if m.page.Stale {
		header = append(header, m.theme.stale.Render("OFFLINE COPY"))
	}
	if m.loading {
		header = append(header, m.theme.muted.Render("loading..."))
	}
	if m.searching {
		header = append(header, m.searchInput.View())
	}

	lines := []string{strings.Join(header, "  "), ""}
	if m.errText != "" {
		lines = append(lines, m.theme.danger.Render(m.errText), "")
	}

	visible := height - 6
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.page.Emails) && i < start+visible; i++ {
		email := m.page.Emails[i]
		marker := "  "
		if email.IsUnread {
			marker = m.theme.ok.Render("● ")
		}
		row := fmt.Sprintf("%s%s  %s  %s",
			marker,
			email.Date.Format("Jan 02 15:04"),
			padOrTrim(email.From, 28),
			padOrTrim(email.Subject, width-50),
		)
		if i == m.cursor {
			row = m.theme.highlight.Render(row)
		} else {
			row = m.theme.text.Render(row)
		}
		lines = append(lines, row)
	}
	if len(m.page.Emails) == 0 && m.loaded && !m.loading {
		lines = append(lines, m.theme.muted.Render("no messages match this view"))
	}

	return m.theme.panel.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m mailModel) viewDetail(width, height int) string {
	head := []string{
		m.theme.title.Render(m.detail.Subject),
		m.theme.muted.Render("from: ") + m.theme.text.Render(m.detail.From),
		m.theme.muted.Render("date: ") + m.theme.text.Render(m.detail.Date.Format("Jan 02 2006 15:04")),
	}
	if len(m.thread) > 1 {
		head = append(head, m.theme.muted.Render(fmt.Sprintf("thread: %d messages", len(m.thread))))
	}
	head = append(head, "")
	body := lipgloss.JoinVertical(lipgloss.Left, append(head, m.bodyView.View())...)
	return m.theme.panel.Width(width - 2).Height(height - 2).Render(body)
}

func (m mailModel) viewCompose(width, height int) string {
	lines := []string{
		m.theme.title.Render("Reply: " + m.detail.Subject),
		m.theme.muted.Render("to: ") + m.theme.text.Render(m.detail.From),
	}
	if m.drafting {
		lines = append(lines, "", m.theme.warn.Render("Generating a draft..."))
	} else {
		if m.generatedText != "" && m.compose.Value() == m.generatedText {
			lines = append(lines, m.theme.ok.Render("AI draft (edit to make it yours)"))
		}
		lines = append(lines, "", m.compose.View())
	}
	if m.sending {
		lines = append(lines, "", m.theme.warn.Render("Sending..."))
	}
	if m.errText != "" {
		lines = append(lines, "", m.theme.danger.Render(m.errText))
	}
	return m.theme.panel.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m mailModel) helpLine() string {
	switch {
	case m.searching:
		return "enter apply | esc cancel"
	case m.mode == mailModeCompose:
		return "ctrl+s send | esc back"
	case m.mode == mailModeDetail:
		return "r reply | g draft with AI | j/k scroll | esc back"
	default:
		return "enter open | u unread | l label | / search | n/p page | r refresh | 1/2/3 tabs | q quit"
	}
}

// renderEmailBody strips markup from HTML mail; plain text passes
// through untouched.
func renderEmailBody(body string) string {
	lower := strings.ToLower(body)
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<div") &&
		!strings.Contains(lower, "<p>") && !strings.Contains(lower, "<br") {
		return body
	}
	text, err := extract.HTMLText(strings.NewReader(body))
	if err != nil || strings.TrimSpace(text) == "" {
		return body
	}
	return text
}

func padOrTrim(s string, n int) string {
	if n < 4 {
		n = 4
	}
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(runes))
}
