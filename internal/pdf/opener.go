package pdf

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ReaderSystem opens PDFs with the platform's default handler.
const ReaderSystem = "system"

// ErrUnsupportedPlatform is returned when no viewer command is known for the OS.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Readers lists the accepted pdf_reader values.
var Readers = []string{ReaderSystem, "skim", "preview", "zathura", "evince", "okular"}

// Opener launches a PDF viewer for attached papers.
type Opener struct {
	reader string
	goos   string
}

// NewOpener returns an Opener using reader, or the system handler when empty.
func NewOpener(reader string) *Opener {
	if reader == "" {
		reader = ReaderSystem
	}
	return &Opener{reader: reader, goos: runtime.GOOS}
}

// Open starts the viewer on path without waiting for it to exit.
func (o *Opener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF not found: %s", path)
		}
		return fmt.Errorf("checking PDF: %w", err)
	}

	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the viewer invocation for path.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin":
		switch o.reader {
		case "skim":
			return exec.Command("open", "-a", "Skim", path), nil
		case "preview":
			return exec.Command("open", "-a", "Preview", path), nil
		default:
			return exec.Command("open", path), nil
		}
	case "linux":
		switch o.reader {
		case "zathura", "evince", "okular":
			return exec.Command(o.reader, path), nil
		default:
			return exec.Command("xdg-open", path), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, o.goos)
	}
}
