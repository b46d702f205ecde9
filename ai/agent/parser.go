package agent

import (
	"strings"
	"unicode"
)

// CommandPrefix marks an input as a slash command.
const CommandPrefix = "/"

// IsCommand reports whether input (after trimming) starts with the command prefix.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), CommandPrefix)
}

// ParseCommand splits "/name p1 p2" into the name and positional params.
// The name is everything up to the first whitespace, so it is empty for a
// bare "/" and for "/ find". ok is false when input is not a command.
func ParseCommand(input string) (name string, params []string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, CommandPrefix) {
		return "", nil, false
	}

	rest := strings.TrimPrefix(input, CommandPrefix)
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		return rest, []string{}, true
	}
	return rest[:end], strings.Fields(rest[end:]), true
}
