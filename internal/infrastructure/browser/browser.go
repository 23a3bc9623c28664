// Package browser hands URLs to the desktop environment.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/maildeck/maildeck/internal/observability/logging"
)

type Opener struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = logging.Discard("browser")
	}
	return &Opener{logger: logger}
}

// OpenURL launches the platform opener and returns once the handoff
// started; the browser itself outlives the process.
func (o *Opener) OpenURL(ctx context.Context, url string) error {
	name, args := openCommand(runtime.GOOS, url)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	o.logger.Info("browser_opened", "url", url)
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
