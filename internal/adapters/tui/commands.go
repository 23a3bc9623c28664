package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maildeck/maildeck/internal/core/domain"
)

func (m Model) bootstrapCmd() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		return sessionMsg{session: deps.Session.Bootstrap(ctx)}
	}
}

func (m Model) startLoginCmd() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		return loginResultMsg{err: deps.Session.StartLogin(ctx)}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		deps.Session.Logout()
		return sessionMsg{session: deps.Session.Session()}
	}
}

func (m Model) listEmailsCmd(filter domain.EmailFilter) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		page, err := deps.Mailbox.List(ctx, filter)
		return emailsMsg{page: page, err: err}
	}
}

func (m Model) emailDetailCmd(emailID string) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		email, err := deps.Mailbox.Get(ctx, emailID)
		if err != nil {
			return emailDetailMsg{err: err}
		}
		// Thread context is nice to have; the message alone is enough.
		thread, err := deps.Mailbox.Thread(ctx, emailID)
		if err != nil {
			thread = nil
		}
		return emailDetailMsg{email: email, thread: thread}
	}
}

func (m Model) labelsCmd() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		labels, err := deps.Mailbox.Labels(ctx)
		return labelsMsg{labels: labels, err: err}
	}
}

func (m Model) generateDraftCmd(emailID string) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		content, err := deps.Mailbox.GenerateReply(ctx, emailID)
		return draftMsg{emailID: emailID, content: content, err: err}
	}
}

func (m Model) sendReplyCmd(emailID, content string, useGenerated bool) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		receipt, err := deps.Mailbox.SendReply(ctx, emailID, content, useGenerated)
		return replyMsg{receipt: receipt, err: err}
	}
}

func (m Model) listDocumentsCmd(offset int) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		page, err := deps.Documents.List(ctx, deps.PageLimit, offset)
		return documentsMsg{page: page, err: err}
	}
}

func (m Model) previewCmd(doc domain.Document) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		preview, err := deps.Documents.Preview(ctx, doc)
		return previewMsg{preview: preview, err: err}
	}
}

func (m Model) deleteDocumentCmd(id string) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		_ = deps.Documents.Delete(ctx, id)
		return documentDeletedMsg{id: id}
	}
}

func (m Model) toggleCmd(enabled bool) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		state, err := deps.Ingestion.Toggle(ctx, enabled)
		return toggleMsg{state: state, err: err}
	}
}

func (m Model) toggleStateCmd() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		state, err := deps.Ingestion.ToggleState(ctx)
		return toggleMsg{state: state, err: err}
	}
}

func (m Model) healthCmd() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		health, err := deps.Health.Health(ctx)
		return healthMsg{health: health, err: err}
	}
}
