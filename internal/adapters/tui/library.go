package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maildeck/maildeck/internal/core/domain"
)

type libraryMode int

const (
	libraryModeList libraryMode = iota
	libraryModePreview
)

// libraryModel is the document manager surface.
type libraryModel struct {
	deps  Deps
	theme theme

	width  int
	height int

	mode    libraryMode
	loaded  bool
	loading bool
	errText string

	page   domain.DocumentPage
	offset int
	cursor int

	confirmDelete bool

	preview     domain.Preview
	previewView viewport.Model
}

func newLibraryModel(deps Deps, th theme) libraryModel {
	return libraryModel{
		deps:        deps,
		theme:       th,
		previewView: viewport.New(0, 0),
	}
}

func (m *libraryModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.previewView.Width = width - 6
	m.previewView.Height = height - 6
	if m.previewView.Height < 3 {
		m.previewView.Height = 3
	}
}

func (m libraryModel) update(msg tea.Msg) (libraryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case documentsMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.loaded = true
		m.errText = ""
		m.page = msg.page
		m.offset = msg.page.Offset
		if m.cursor >= len(m.page.Documents) {
			m.cursor = len(m.page.Documents) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case previewMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.mode = libraryModePreview
		m.preview = msg.preview
		m.previewView.SetContent(msg.preview.Text)
		m.previewView.GotoTop()
		return m, nil
	}
	return m, nil
}

func (m libraryModel) updateKey(msg tea.KeyMsg, root Model) (libraryModel, tea.Cmd) {
	if m.mode == libraryModePreview {
		switch msg.String() {
		case "esc", "backspace":
			m.mode = libraryModeList
			return m, nil
		}
		var cmd tea.Cmd
		m.previewView, cmd = m.previewView.Update(msg)
		return m, cmd
	}

	if m.confirmDelete {
		if msg.String() == "y" && m.cursor < len(m.page.Documents) {
			return m, root.deleteDocumentCmd(m.page.Documents[m.cursor].ID)
		}
		m.confirmDelete = false
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.page.Documents)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.page.Documents) {
			m.loading = true
			return m, root.previewCmd(m.page.Documents[m.cursor])
		}
	case "d":
		if m.cursor < len(m.page.Documents) {
			m.confirmDelete = true
		}
	case "r":
		m.loading = true
		return m, root.listDocumentsCmd(m.offset)
	case "n":
		if m.offset+m.page.Limit < m.page.Total && m.page.Limit > 0 {
			m.loading = true
			return m, root.listDocumentsCmd(m.offset + m.page.Limit)
		}
	case "p":
		if m.offset > 0 {
			next := m.offset - m.page.Limit
			if next < 0 {
				next = 0
			}
			m.loading = true
			return m, root.listDocumentsCmd(next)
		}
	}
	return m, nil
}

func (m libraryModel) view(width, height int, snap domain.IngestionSnapshot) string {
	if m.mode == libraryModePreview {
		return m.viewPreview(width, height)
	}

	header := []string{m.theme.subtitle.Render("Knowledge base")}
	header = append(header, m.theme.muted.Render(fmt.Sprintf("%d documents", m.page.Total)))
	header = append(header, m.ingestionChip(snap))
	if m.page.Stale {
		header = append(header, m.theme.stale.Render("OFFLINE COPY"))
	}
	if m.loading {
		header = append(header, m.theme.muted.Render("loading..."))
	}

	lines := []string{strings.Join(header, "  "), ""}
	if m.errText != "" {
		lines = append(lines, m.theme.danger.Render(m.errText), "")
	}

	visible := height - 7
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.page.Documents) && i < start+visible; i++ {
		doc := m.page.Documents[i]
		row := fmt.Sprintf("%s  %s  %s",
			m.statusBadge(doc.Status),
			doc.CreatedAt.Format("Jan 02 2006"),
			padOrTrim(doc.Filename, width-30),
		)
		if i == m.cursor {
			row = m.theme.highlight.Render(row)
		}
		lines = append(lines, row)
	}
	if len(m.page.Documents) == 0 && m.loaded && !m.loading {
		lines = append(lines, m.theme.muted.Render("no documents uploaded yet"))
	}

	if m.confirmDelete && m.cursor < len(m.page.Documents) {
		lines = append(lines, "", m.theme.danger.Render(
			fmt.Sprintf("Delete %q? y confirms, any other key cancels", m.page.Documents[m.cursor].Filename)))
	}

	return m.theme.panel.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m libraryModel) viewPreview(width, height int) string {
	head := []string{m.theme.title.Render(m.preview.Document.Filename)}
	if m.preview.Truncated {
		head = append(head, m.theme.warn.Render("preview truncated"))
	}
	lines := []string{strings.Join(head, "  "), "", m.previewView.View()}
	return m.theme.panel.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

// ingestionChip renders the poll-confirmed job state. Until the first
// confirmation the state is unknown and actions that depend on it stay
// closed.
func (m libraryModel) ingestionChip(snap domain.IngestionSnapshot) string {
	if !snap.Confirmed {
		return m.theme.muted.Render("checking ingestion...")
	}
	switch snap.Status {
	case domain.IngestionInProgress:
		return m.theme.warn.Render("ingestion running")
	case domain.IngestionFailed:
		return m.theme.danger.Render("last ingestion failed")
	case domain.IngestionCompleted:
		return m.theme.ok.Render("ingestion completed")
	default:
		return m.theme.muted.Render("ingestion idle")
	}
}

func (m libraryModel) statusBadge(status domain.DocumentStatus) string {
	switch status {
	case domain.DocumentReady:
		return m.theme.ok.Render("ready     ")
	case domain.DocumentProcessing:
		return m.theme.warn.Render("processing")
	case domain.DocumentFailed:
		return m.theme.danger.Render("failed    ")
	default:
		return m.theme.muted.Render("uploaded  ")
	}
}
