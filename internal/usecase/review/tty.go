package review

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal reports whether stdout is a terminal. Runs inside GitHub
// Actions see a pipe here, which selects the JSON log format; interactive
// local runs get the human format.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
