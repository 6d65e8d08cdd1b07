package console

import (
	"strings"
	"time"
)

// Caller is whoever typed a command.
type Caller interface {
	CallerID() string
	Name() string
	IsAdmin() bool
}

// Command is one parsed console line.
type Command struct {
	Name       string
	Args       []string
	Line       string
	Caller     Caller
	ReceivedAt time.Time
}

// Parse splits line into a command name and arguments. Double quotes group
// words into one argument. The name is lower-cased.
func Parse(line string) (string, []string) {
	var (
		fields  []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				fields = append(fields, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if pending {
		fields = append(fields, cur.String())
	}

	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}
