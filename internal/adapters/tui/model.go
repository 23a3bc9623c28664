package tui

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/observability/logging"
)

const toastTTL = 5 * time.Second

type tab int

const (
	tabEmails tab = iota
	tabDocuments
	tabSettings
)

// Deps carries everything the UI calls into.
type Deps struct {
	Session   ports.SessionControl
	Ingestion ports.IngestionControl
	Mailbox   ports.Mailbox
	Documents ports.DocumentLibrary
	Health    ports.HealthAPI
	Bus       ports.EventBus
	Logger    *slog.Logger

	PageLimit  int
	UnreadOnly bool
}

// sender forwards messages into the running program. The program does
// not exist yet when the model is built, so the target is bound later.
type sender struct {
	mu sync.Mutex
	fn func(tea.Msg)
}

func (s *sender) bind(fn func(tea.Msg)) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *sender) send(msg tea.Msg) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

type toast struct {
	id    int
	text  string
	style string
}

type Model struct {
	deps  Deps
	ctx   context.Context
	out   *sender
	theme theme

	width  int
	height int

	active  tab
	session domain.Session
	snap    domain.IngestionSnapshot

	mail     mailModel
	library  libraryModel
	settings settingsModel

	toasts   []toast
	toastSeq int

	// watchStop is set while the documents or settings tab holds the
	// ingestion poll subscription.
	watchStop func()
}

func New(ctx context.Context, deps Deps, out *sender) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard("tui")
	}
	if deps.PageLimit <= 0 {
		deps.PageLimit = 50
	}
	th := newTheme()
	return Model{
		deps:     deps,
		ctx:      ctx,
		out:      out,
		theme:    th,
		active:   tabEmails,
		session:  domain.Session{Phase: domain.SessionPending},
		mail:     newMailModel(deps, th),
		library:  newLibraryModel(deps, th),
		settings: newSettingsModel(deps, th),
	}
}

func (m Model) Init() tea.Cmd {
	return m.bootstrapCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.mail.setSize(msg.Width, m.bodyHeight())
		m.library.setSize(msg.Width, m.bodyHeight())
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case sessionMsg:
		m.session = msg.session
		if m.session.Authenticated() && !m.mail.loaded {
			return m, tea.Batch(m.listEmailsCmd(m.mail.filter), m.labelsCmd())
		}
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			return m.pushToast("Sign-in failed: "+msg.err.Error(), "danger")
		}
		return m.pushToast("Finish signing in from your browser, then restart", "ok")

	case rateLimitMsg:
		text := msg.message
		if text == "" {
			text = "Rate limit exceeded"
		}
		return m.pushToast(text, "warn")

	case ingestionDoneMsg:
		next, cmd := m.pushToast("Ingestion completed", "ok")
		if next.library.loaded {
			// One refresh per finished run; the event fires once per edge.
			return next, tea.Batch(cmd, next.listDocumentsCmd(next.library.offset))
		}
		return next, cmd

	case ingestionMsg:
		m.snap = msg.snap
		return m, nil

	case toastExpiredMsg:
		kept := m.toasts[:0]
		for _, item := range m.toasts {
			if item.id != msg.id {
				kept = append(kept, item)
			}
		}
		m.toasts = kept
		return m, nil

	case replyMsg:
		var cmd tea.Cmd
		m.mail, cmd = m.mail.update(msg)
		if msg.err == nil {
			next, toastCmd := m.pushToast("Reply sent", "ok")
			return next, tea.Batch(cmd, toastCmd)
		}
		return m, cmd

	case emailsMsg, emailDetailMsg, labelsMsg, draftMsg:
		var cmd tea.Cmd
		m.mail, cmd = m.mail.update(msg)
		return m, cmd

	case documentDeletedMsg:
		m.library.confirmDelete = false
		m.library.loading = true
		next, toastCmd := m.pushToast("Document removed", "ok")
		return next, tea.Batch(toastCmd, next.listDocumentsCmd(next.library.offset))

	case documentsMsg, previewMsg:
		var cmd tea.Cmd
		m.library, cmd = m.library.update(msg)
		return m, cmd

	case toggleMsg, healthMsg:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.stopWatch()
		return m, tea.Quit
	}

	// Text inputs swallow every other key.
	if m.active == tabEmails && m.mail.capturing() {
		var cmd tea.Cmd
		m.mail, cmd = m.mail.updateKey(msg, m)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.stopWatch()
		return m, tea.Quit
	case "1":
		return m.setTab(tabEmails)
	case "2":
		return m.setTab(tabDocuments)
	case "3":
		return m.setTab(tabSettings)
	case "tab":
		return m.setTab((m.active + 1) % 3)
	case "i":
		if !m.session.Authenticated() {
			return m, m.startLoginCmd()
		}
	}

	var cmd tea.Cmd
	switch m.active {
	case tabEmails:
		m.mail, cmd = m.mail.updateKey(msg, m)
	case tabDocuments:
		m.library, cmd = m.library.updateKey(msg, m)
	case tabSettings:
		m.settings, cmd = m.settings.updateKey(msg, m)
	}
	return m, cmd
}

// setTab switches surfaces and moves the ingestion subscription with
// it: the mailbox does not need job state, the other two do.
func (m Model) setTab(next tab) (tea.Model, tea.Cmd) {
	if next == m.active {
		return m, nil
	}
	m.active = next

	if next == tabEmails {
		m.stopWatch()
	} else if m.watchStop == nil && m.deps.Ingestion != nil {
		out := m.out
		m.watchStop = m.deps.Ingestion.Watch(m.ctx, func(snap domain.IngestionSnapshot) {
			out.send(ingestionMsg{snap: snap})
		})
		m.snap = m.deps.Ingestion.Snapshot()
	}

	var cmds []tea.Cmd
	switch next {
	case tabDocuments:
		if !m.library.loaded {
			cmds = append(cmds, m.listDocumentsCmd(0))
		}
	case tabSettings:
		cmds = append(cmds, m.healthCmd(), m.toggleStateCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) stopWatch() {
	if m.watchStop != nil {
		m.watchStop()
		m.watchStop = nil
	}
}

func (m Model) pushToast(text, style string) (Model, tea.Cmd) {
	m.toastSeq++
	id := m.toastSeq
	m.toasts = append(m.toasts, toast{id: id, text: text, style: style})
	return m, tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m Model) bodyHeight() int {
	// Header, tab bar and footer take fixed rows.
	h := m.height - 7
	if h < 4 {
		h = 4
	}
	return h
}

func (m Model) View() string {
	if m.width == 0 {
		return "Starting maildeck..."
	}

	header := m.viewHeader()
	tabs := m.viewTabs()

	var body string
	switch m.active {
	case tabEmails:
		body = m.mail.view(m.width, m.bodyHeight())
	case tabDocuments:
		body = m.library.view(m.width, m.bodyHeight(), m.snap)
	case tabSettings:
		body = m.settings.view(m.width, m.bodyHeight(), m.session, m.snap)
	}

	footer := m.theme.help.Render(m.helpLine())
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, body, footer)
}

func (m Model) viewHeader() string {
	left := m.theme.title.Render("maildeck")

	var who string
	switch {
	case m.session.Phase == domain.SessionPending:
		who = m.theme.muted.Render("connecting...")
	case m.session.LoginPending:
		who = m.theme.warn.Render("signing in...")
	case m.session.Authenticated():
		email := ""
		if m.session.User != nil {
			email = m.session.User.Email
		}
		who = m.theme.ok.Render(email)
	default:
		who = m.theme.muted.Render("signed out (press i to sign in)")
	}

	parts := []string{left, who}
	for _, item := range m.toasts {
		style := m.theme.toast
		switch item.style {
		case "ok":
			style = m.theme.toast.Background(lipgloss.Color("#7FC98B"))
		case "danger":
			style = m.theme.toast.Background(lipgloss.Color("#E0707A"))
		}
		parts = append(parts, style.Render(item.text))
	}
	return m.theme.panel.Width(m.width - 2).Render(strings.Join(parts, "  "))
}

func (m Model) viewTabs() string {
	names := []string{"1 Emails", "2 Documents", "3 Settings"}
	rendered := make([]string, len(names))
	for i, name := range names {
		if tab(i) == m.active {
			rendered[i] = m.theme.tabOn.Render(name)
		} else {
			rendered[i] = m.theme.tabOff.Render(name)
		}
	}
	return strings.Join(rendered, " ")
}

func (m Model) helpLine() string {
	switch m.active {
	case tabEmails:
		return m.mail.helpLine()
	case tabDocuments:
		return "enter preview | d delete | r refresh | n/p page | 1/2/3 tabs | q quit"
	default:
		return "t toggle ingestion | o sign out | i sign in | 1/2/3 tabs | q quit"
	}
}
