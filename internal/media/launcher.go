// Package media opens post links with the desktop's default handler.
package media

import (
	"net/url"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"

	"github.com/pders01/qrsum/internal/debuglog"
)

// ErrNoOpener is returned when no handler command could be found.
var ErrNoOpener = errors.New("no application found to open URLs")

// Launcher starts an external program for a URL and does not wait for it.
type Launcher struct {
	opener string
	start  func(name string, args ...string) error
}

// NewLauncher uses opener when set and the platform default otherwise.
func NewLauncher(opener string) *Launcher {
	if opener == "" {
		opener = findCommand(defaultOpeners()...)
	}
	return &Launcher{opener: opener, start: startDetached}
}

func (l *Launcher) Opener() string { return l.opener }

// Open hands rawURL to the opener. Only http and https links are opened.
func (l *Launcher) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("refusing to open %q", rawURL)
	}
	if l.opener == "" {
		return ErrNoOpener
	}

	args := []string{u.String()}
	name := l.opener
	if name == "rundll32" {
		args = append([]string{"url.dll,FileProtocolHandler"}, args...)
	}

	debuglog.Debugf("media: %s %s", name, u)
	if err := l.start(name, args...); err != nil {
		return errors.Wrapf(err, "starting %s", name)
	}
	return nil
}

func defaultOpeners() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32"}
	default:
		return []string{"xdg-open", "gio", "sensible-browser"}
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
