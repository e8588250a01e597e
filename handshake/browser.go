package handshake

import (
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// SystemBrowser opens URLs in the user's default browser. The resulting
// Window cannot observe closure, so abandonment of a flow is only detected
// through cancellation or a context deadline.
type SystemBrowser struct{}

// Open launches the default browser at url.
func (SystemBrowser) Open(url string) (Window, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "[SystemBrowser.Open] start browser")
	}
	return browserWindow{}, nil
}

type browserWindow struct{}

func (browserWindow) Closed() bool { return false }
func (browserWindow) Close()       {}
