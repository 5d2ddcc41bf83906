package backends

import (
	"strings"

	"github.com/shipkey/shipkey/internal/logging"
	pkgexec "github.com/shipkey/shipkey/pkg/exec"
)

// Deps are the collaborators every backend is built from.
type Deps struct {
	Executor pkgexec.CommandExecutor
	Logger   *logging.Logger
	// Session supplies the Bitwarden session token. Nil means DefaultSession.
	Session SessionFunc
}

func (d Deps) withDefaults() Deps {
	if d.Executor == nil {
		d.Executor = pkgexec.DefaultExecutor()
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Session == nil {
		d.Session = DefaultSession
	}
	return d
}

// subcommand returns the leading plain words of args, at most two, so
// debug logs never carry values or encoded payloads.
func subcommand(args []string) string {
	var words []string
	for _, a := range args {
		if len(words) == 2 || !isWord(a) {
			break
		}
		words = append(words, a)
	}
	return strings.Join(words, " ")
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
