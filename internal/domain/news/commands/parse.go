package commands

import (
	"strings"

	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
)

// Invocation is a parsed admin command
type Invocation struct {
	Name     string
	Argument string
	// Quoted is set when the argument was written in quotes
	Quoted bool
}

// Parse splits raw into command name and argument. The argument is either
// "quoted text" or the bare rest of the line. ok is false for an opening
// quote without a closing one.
func Parse(raw string) (inv Invocation, ok bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, consts.CommandPrefix)

	name, rest, _ := strings.Cut(raw, " ")
	inv.Name = strings.ToLower(strings.TrimSpace(name))

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, `"`) {
		inv.Argument = rest
		return inv, true
	}

	end := strings.LastIndex(rest, `"`)
	if end == 0 {
		return inv, false
	}
	inv.Argument = rest[1:end]
	inv.Quoted = true
	return inv, true
}
