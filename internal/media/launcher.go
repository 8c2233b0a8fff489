package media

import (
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/pders01/fotag/internal/config"
	"github.com/pders01/fotag/internal/debuglog"
)

// Launcher opens photo URLs in an external application.
type Launcher struct {
	imageViewer   string
	defaultOpener string
	detector      *TypeDetector
	start         func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	detector, err := NewTypeDetector()
	if err != nil {
		// Fall back to the default opener for everything.
		debuglog.Warnf("loading photo types: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	l := &Launcher{
		defaultOpener: cfg.Media.DefaultOpener,
		detector:      detector,
		start:         startDetached,
	}
	l.imageViewer = findCommand(cfg.Media.ImageViewers...)
	if l.imageViewer == "" {
		l.imageViewer = l.defaultOpener
	}
	return l
}

// Open launches the application for rawURL. Only http and https URLs are
// accepted.
func (l *Launcher) Open(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}

	program := l.defaultOpener
	if l.detector.DetectType(u.String()) == TypeImage {
		program = l.imageViewer
	}
	if program == "" {
		return fmt.Errorf("no application found to open URL")
	}

	name, args := command(program, u.String())
	debuglog.Debugf("opening %s with %s", u, name)
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", program, err)
	}
	return nil
}

// command builds the invocation; start is a cmd.exe builtin.
func command(program, target string) (string, []string) {
	if program == "start" {
		return "cmd", []string{"/c", "start", "", target}
	}
	return program, []string{target}
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
