// Package cmdline holds the helpers for turning user-supplied command strings into argument lists and back.
package cmdline

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/kballard/go-shellquote"

	"github.com/alanbriolat/stream-resolver/generic"
)

// Tokenize splits s into arguments using shell quoting rules, without involving a shell.
func Tokenize(s string) ([]string, error) {
	tokens, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("invalid command syntax: %w", err)
	}
	return tokens, nil
}

// Render joins args into a single string quoted for a human to read. It is not meant to be re-executed.
func Render(args []string) string {
	return shellquote.Join(args...)
}

// A Blacklist is a set of flags that must not be passed through from user input. Flags that take a value must also
// be in WithValue, so that Sanitize drops the value along with the flag.
type Blacklist struct {
	Flags     generic.Set[string]
	WithValue generic.Set[string]
}

// NewBlacklist creates a Blacklist from flags that take no value.
func NewBlacklist(flags ...string) Blacklist {
	return Blacklist{
		Flags:     generic.NewSet(flags...),
		WithValue: generic.NewSet[string](),
	}
}

// WithValueFlags returns a copy of the Blacklist that also contains flags, each of which takes a value.
func (b Blacklist) WithValueFlags(flags ...string) Blacklist {
	added := generic.NewSet(flags...)
	return Blacklist{
		Flags:     added.Union(b.Flags),
		WithValue: added.Union(b.WithValue),
	}
}

// match reports whether token is a blacklisted flag, and whether the following token is its value.
func (b Blacklist) match(token string) (blocked bool, consumesNext bool) {
	if b.Flags == nil || !strings.HasPrefix(token, "-") || token == "-" {
		return false, false
	}
	if b.Flags.Contains(token) {
		return true, b.WithValue != nil && b.WithValue.Contains(token)
	}
	// --flag=value
	if strings.HasPrefix(token, "--") {
		if name, _, found := strings.Cut(token, "="); found && b.Flags.Contains(name) {
			return true, false
		}
		return false, false
	}
	// Clusters: -gv, -fvalue, -vf value. The arity of flags outside the blacklist is unknown, so a cluster is
	// dropped whole as soon as it contains a blacklisted flag.
	for i, c := range token[1:] {
		flag := "-" + string(c)
		if !b.Flags.Contains(flag) {
			continue
		}
		if b.WithValue != nil && b.WithValue.Contains(flag) {
			// The rest of the cluster is the value, or if there isn't any, the next token is.
			return true, i+1+len(string(c)) == len(token)
		}
		return true, false
	}
	return false, false
}

// Sanitize removes blacklisted flags, and the values of those that take one, from tokens. A leading token equal to
// processName is dropped too, so that a full command line can be passed in. Everything else is kept in order. After
// a "--" terminator nothing is treated as a flag.
func Sanitize(tokens []string, processName string, blacklist Blacklist) []string {
	if len(tokens) > 0 && processName != "" && tokens[0] == processName {
		tokens = tokens[1:]
	}
	result := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if token == "--" {
			result = append(result, tokens[i:]...)
			break
		}
		if blocked, consumesNext := blacklist.match(token); blocked {
			if consumesNext {
				i++
			}
			continue
		}
		result = append(result, token)
	}
	return result
}
