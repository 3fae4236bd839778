package gate

import (
	"os"

	"golang.org/x/term"

	"github.com/thruflo/reviewgate/internal/logging"
)

// CheckStreams reports, at debug level, whether the process is attached to a
// terminal or to pipes. File writes in Go are unbuffered per call, so there
// is no buffering mode to switch here; a non-terminal stdout just means an
// orchestrator is reading the stream. Never fatal.
func CheckStreams(log *logging.Logger) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Debug("stdin is not a terminal; reading piped input")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		log.Debug("stdout is not a terminal; lines are written unbuffered for the consumer")
	}
}
