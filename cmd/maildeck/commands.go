package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maildeck/maildeck/internal/bootstrap"
	"github.com/maildeck/maildeck/internal/core/domain"
)

var (
	loginToken        string
	loginRefreshToken string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the browser, or store a token directly",
	Long: `Sign in to the backend.

Without flags the backend's sign-in page is opened in the browser and
the session lands on the next run. With --token the given bearer token
is stored and verified immediately, which suits headless machines.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the local session and notify the backend",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in profile",
	RunE:  runWhoami,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend health and the ingestion toggle",
	RunE:  runStatus,
}

var (
	emailsUnread bool
	emailsSearch string
	emailsLabel  string
	emailsLimit  int
	emailsOffset int
)

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "List emails",
	RunE:  runEmails,
}

var (
	documentsLimit  int
	documentsOffset int
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List knowledge base documents",
	RunE:  runDocuments,
}

var previewCmd = &cobra.Command{
	Use:   "preview <document-id>",
	Short: "Print the extracted text of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <on|off>",
	Short: "Switch automatic ingestion on or off",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var generateCmd = &cobra.Command{
	Use:   "generate <email-id>",
	Short: "Print an AI reply draft for an email",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var (
	replyMessage  string
	replyUseDraft bool
)

var replyCmd = &cobra.Command{
	Use:   "reply <email-id>",
	Short: "Send a reply to an email",
	Long: `Send a reply to an email.

The body comes from --message, from stdin when --message is absent, or
from a freshly generated AI draft with --draft.`,
	Args: cobra.ExactArgs(1),
	RunE: runReply,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(emailsCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(replyCmd)

	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token to store instead of the browser flow")
	loginCmd.Flags().StringVar(&loginRefreshToken, "refresh-token", "", "Refresh token stored alongside --token")

	emailsCmd.Flags().BoolVar(&emailsUnread, "unread", false, "Only unread emails")
	emailsCmd.Flags().StringVar(&emailsSearch, "search", "", "Full text search query")
	emailsCmd.Flags().StringVar(&emailsLabel, "label", "", "Provider label name")
	emailsCmd.Flags().IntVar(&emailsLimit, "limit", 0, "Page size (default from config)")
	emailsCmd.Flags().IntVar(&emailsOffset, "offset", 0, "Paging offset")

	documentsCmd.Flags().IntVar(&documentsLimit, "limit", 0, "Page size (default from config)")
	documentsCmd.Flags().IntVar(&documentsOffset, "offset", 0, "Paging offset")

	replyCmd.Flags().StringVarP(&replyMessage, "message", "m", "", "Reply body")
	replyCmd.Flags().BoolVar(&replyUseDraft, "draft", false, "Generate an AI draft and send it as is")
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		if loginToken != "" {
			tokens := domain.TokenPair{AccessToken: loginToken, RefreshToken: loginRefreshToken}
			if err := app.Credentials.Save(tokens); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
		}

		sess := app.Session.Bootstrap(ctx)
		if sess.Authenticated() {
			fmt.Printf("Signed in as %s.\n", sess.User.Email)
			return nil
		}
		if loginToken != "" {
			return errors.New("the backend rejected the stored token")
		}

		if err := app.Session.StartLogin(ctx); err != nil {
			return fmt.Errorf("start login: %w", err)
		}
		fmt.Println("Browser opened. Finish signing in there, then run maildeck again.")
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		app.Session.Logout()
		fmt.Println("Signed out.")
		return nil
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		sess := app.Session.Bootstrap(ctx)
		if !sess.Authenticated() {
			fmt.Println("Not signed in.")
			return nil
		}
		user := sess.User
		if user.Name != "" {
			fmt.Printf("%s <%s>\n", user.Name, user.Email)
		} else {
			fmt.Println(user.Email)
		}
		fmt.Printf("id: %s\n", user.ID)
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		health, err := app.Health.Health(ctx)
		if err != nil {
			return fmt.Errorf("health: %w", err)
		}
		fmt.Printf("backend: %s\n", health.Status)

		names := make([]string, 0, len(health.Services))
		for name := range health.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-14s %s\n", name, health.Services[name])
		}

		if app.Session.Bootstrap(ctx).Authenticated() {
			state, err := app.Ingestion.ToggleState(ctx)
			if err != nil {
				return fmt.Errorf("toggle state: %w", err)
			}
			fmt.Printf("automatic ingestion: %s\n", onOff(state.Enabled))
		}
		return nil
	})
}

func runEmails(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		if err := requireSession(ctx, app); err != nil {
			return err
		}
		limit := emailsLimit
		if limit <= 0 {
			limit = app.Config.PageLimit
		}
		page, err := app.Mailbox.List(ctx, domain.EmailFilter{
			UnreadOnly: emailsUnread,
			Search:     emailsSearch,
			Label:      emailsLabel,
			Limit:      limit,
			Offset:     emailsOffset,
		})
		if err != nil {
			return fmt.Errorf("list emails: %w", err)
		}

		if page.Stale {
			fmt.Println("offline copy; the backend was unreachable")
		}
		for _, email := range page.Emails {
			marker := " "
			if email.IsUnread {
				marker = "*"
			}
			fmt.Printf("%s %-24s %s  %-28s  %s\n",
				marker, email.ID, email.Date.Format("2006-01-02 15:04"),
				trimTo(email.From, 28), email.Subject)
		}
		if len(page.Emails) > 0 {
			fmt.Printf("%d-%d of %d\n", page.Offset+1, page.Offset+len(page.Emails), page.Total)
		} else {
			fmt.Println("no emails")
		}
		return nil
	})
}

func runDocuments(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		if err := requireSession(ctx, app); err != nil {
			return err
		}
		limit := documentsLimit
		if limit <= 0 {
			limit = app.Config.PageLimit
		}
		page, err := app.Documents.List(ctx, limit, documentsOffset)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}

		if page.Stale {
			fmt.Println("offline copy; the backend was unreachable")
		}
		for _, doc := range page.Documents {
			fmt.Printf("%-24s %-10s %s  %s\n",
				doc.ID, doc.Status, doc.CreatedAt.Format("2006-01-02"), doc.Filename)
		}
		if len(page.Documents) > 0 {
			fmt.Printf("%d-%d of %d\n", page.Offset+1, page.Offset+len(page.Documents), page.Total)
		} else {
			fmt.Println("no documents")
		}
		return nil
	})
}

func runPreview(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		if err := requireSession(ctx, app); err != nil {
			return err
		}
		doc, err := findDocument(ctx, app, args[0])
		if err != nil {
			return err
		}
		preview, err := app.Documents.Preview(ctx, doc)
		if err != nil {
			return fmt.Errorf("preview %s: %w", doc.Filename, err)
		}
		fmt.Println(preview.Text)
		if preview.Truncated {
			fmt.Println("\n[preview truncated]")
		}
		return nil
	})
}

// findDocument pages through the listing because the preview pipeline
// dispatches on listing metadata, not on the id alone.
func findDocument(ctx context.Context, app *bootstrap.App, id string) (domain.Document, error) {
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		page, err := app.Documents.List(ctx, pageSize, offset)
		if err != nil {
			return domain.Document{}, fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range page.Documents {
			if doc.ID == id {
				return doc, nil
			}
		}
		if len(page.Documents) == 0 || offset+len(page.Documents) >= page.Total {
			return domain.Document{}, fmt.Errorf("document %s not found", id)
		}
	}
}

func runToggle(cmd *cobra.Command, args []string) error {
	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return fmt.Errorf("argument must be on or off, got %q", args[0])
	}

	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		if err := requireSession(ctx, app); err != nil {
			return err
		}
		state, err := app.Ingestion.Toggle(ctx, enabled)
		if err != nil {
			return fmt.Errorf("toggle ingestion: %w", err)
		}
		fmt.Printf("automatic ingestion: %s\n", onOff(state.Enabled))
		if state.Message != "" {
			fmt.Println(state.Message)
		}
		return nil
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		if err := requireSession(ctx, app); err != nil {
			return err
		}
		draft, err := app.Mailbox.GenerateReply(ctx, args[0])
		if err != nil {
			return fmt.Errorf("generate reply: %w", err)
		}
		fmt.Println(draft)
		return nil
	})
}

func runReply(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, app *bootstrap.App) error {
		if err := requireSession(ctx, app); err != nil {
			return err
		}

		content := replyMessage
		useGenerated := false
		switch {
		case replyUseDraft:
			draft, err := app.Mailbox.GenerateReply(ctx, args[0])
			if err != nil {
				return fmt.Errorf("generate reply: %w", err)
			}
			content = draft
			useGenerated = true
		case content == "":
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			content = strings.TrimSpace(string(data))
		}
		if content == "" {
			return errors.New("reply is empty; pass --message or pipe the body on stdin")
		}

		receipt, err := app.Mailbox.SendReply(ctx, args[0], content, useGenerated)
		if err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
		if receipt.Message != "" {
			fmt.Println(receipt.Message)
		} else {
			fmt.Println("Reply sent.")
		}
		return nil
	})
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func trimTo(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
