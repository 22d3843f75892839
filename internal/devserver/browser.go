package devserver

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that opens url in the desktop browser.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// OpenBrowser launches the desktop browser on url without waiting for it.
func OpenBrowser(ctx context.Context, url string) error {
	name, args := browserCommand(runtime.GOOS, url)

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	go func() { _ = cmd.Wait() }()

	return nil
}
