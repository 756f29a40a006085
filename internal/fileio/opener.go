package fileio

import (
	"net/url"
	"os/exec"
	"runtime"

	"marky/internal/errors"
)

// SystemOpener hands URLs to the desktop's default handler by running the
// platform's open command.
type SystemOpener struct{}

// Open starts the handler for raw and returns without waiting for it.
func (SystemOpener) Open(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return errors.Newf("not a URL: %q", raw)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", raw)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", raw)
	default:
		cmd = exec.Command("xdg-open", raw)
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %s", cmd.Path)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
