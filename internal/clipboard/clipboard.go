// Package clipboard copies text, such as a repair prompt, to the system
// clipboard through the platform's command-line tools.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard tool is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// command returns the copy command for goos, trying each tool in order.
func command(goos string) ([]string, error) {
	var candidates [][]string
	switch goos {
	case "darwin":
		candidates = [][]string{{"pbcopy"}}
	case "linux":
		candidates = [][]string{
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
	}

	for _, c := range candidates {
		if _, err := lookPath(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable reports whether Copy can work on this system.
func IsAvailable() bool {
	_, err := command(runtime.GOOS)
	return err == nil
}

// Copy places text on the system clipboard.
func Copy(text string) error {
	args, err := command(runtime.GOOS)
	if err != nil {
		return err
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
