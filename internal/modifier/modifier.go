// Package modifier describes the content edit rules applied by the transform
// engine.
package modifier

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

const (
	// ErrInvalidModifier is returned when a modifier's action, match and
	// contents do not form a valid rule.
	ErrInvalidModifier Error = "invalid modifier"
	// ErrContentUnreadable is returned when a modifier's contents file cannot
	// be read.
	ErrContentUnreadable Error = "modifier contents unreadable"
)

// Error is an error type returned by modifier construction and resolution.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Action is the kind of edit a [Modifier] performs.
type Action int

// Supported actions.
const (
	ActionUnspecified Action = iota
	ActionAppend
	ActionPrepend
	ActionReplace
	ActionErase
	ActionCompare
)

var actionNames = map[Action]string{
	ActionUnspecified: "unspecified",
	ActionAppend:      "append",
	ActionPrepend:     "prepend",
	ActionReplace:     "replace",
	ActionErase:       "erase",
	ActionCompare:     "compare",
}

// ParseAction converts the case-insensitive name of an action into an
// [Action].
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for action, actionName := range actionNames {
		if action != ActionUnspecified && actionName == name {
			return action, nil
		}
	}
	return ActionUnspecified, fmt.Errorf("%w: unknown action %q", ErrInvalidModifier, name)
}

// String satisfies [fmt.Stringer].
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// NeedsContents reports whether the action inserts content into the stream.
func (a Action) NeedsContents() bool {
	switch a {
	case ActionAppend, ActionPrepend, ActionReplace:
		return true
	default:
		return false
	}
}

type contentsKind int

const (
	contentsNone contentsKind = iota
	contentsInline
	contentsFile
)

// Contents is the payload inserted by append, prepend and replace modifiers.
// The zero value is empty contents.
type Contents struct {
	kind   contentsKind
	inline []byte
	path   string
}

// Bytes returns inline contents holding a copy of data.
func Bytes(data []byte) Contents {
	return Contents{kind: contentsInline, inline: bytes.Clone(data)}
}

// String returns inline contents holding s.
func String(s string) Contents {
	return Contents{kind: contentsInline, inline: []byte(s)}
}

// File returns contents read lazily from the file at path.
func File(path string) Contents {
	return Contents{kind: contentsFile, path: path}
}

// IsZero reports whether no contents were provided.
func (c Contents) IsZero() bool { return c.kind == contentsNone }

// Path returns the file backing the contents, or the empty string for inline
// contents.
func (c Contents) Path() string { return c.path }

func (c Contents) String() string {
	switch c.kind {
	case contentsInline:
		return fmt.Sprintf("inline(%d bytes)", len(c.inline))
	case contentsFile:
		return "file(" + c.path + ")"
	default:
		return "none"
	}
}

// Modifier is a single immutable edit rule. Construct one with [New] or the
// per-action helpers; the zero value is not usable.
type Modifier struct {
	action   Action
	match    []byte
	pattern  *regexp.Regexp
	contents Contents

	resolveOnce sync.Once
	resolved    []byte
	resolveErr  error
}

// Option customizes a [Modifier] at construction.
type Option func(*Modifier) error

// AsRegex interprets the match as a regular expression instead of a literal
// byte sequence. Replacement contents may reference submatches with $1 or
// ${name}.
func AsRegex() Option {
	return func(m *Modifier) error {
		pattern, err := regexp.Compile(string(m.match))
		if err != nil {
			return fmt.Errorf("%w: bad pattern %q: %w", ErrInvalidModifier, m.match, err)
		}
		m.pattern = pattern
		return nil
	}
}

// New validates and constructs a [Modifier]. Append, prepend and replace
// require non-empty contents; erase and compare reject any contents.
func New(action Action, match []byte, contents Contents, opts ...Option) (*Modifier, error) {
	mod := &Modifier{
		action:   action,
		match:    bytes.Clone(match),
		contents: contents,
	}
	if err := mod.validate(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(mod); err != nil {
			return nil, err
		}
	}
	return mod, nil
}

func (m *Modifier) validate() error {
	if _, ok := actionNames[m.action]; !ok || m.action == ActionUnspecified {
		return fmt.Errorf("%w: action is required", ErrInvalidModifier)
	}
	if len(m.match) == 0 {
		return fmt.Errorf("%w: %s requires a match", ErrInvalidModifier, m.action)
	}
	switch {
	case m.action.NeedsContents() && m.contents.IsZero():
		return fmt.Errorf("%w: %s requires contents", ErrInvalidModifier, m.action)
	case m.action.NeedsContents() && m.contents.kind == contentsInline && len(m.contents.inline) == 0:
		return fmt.Errorf("%w: %s contents must not be empty", ErrInvalidModifier, m.action)
	case m.action.NeedsContents() && m.contents.kind == contentsFile && m.contents.path == "":
		return fmt.Errorf("%w: %s contents file path is empty", ErrInvalidModifier, m.action)
	case !m.action.NeedsContents() && !m.contents.IsZero():
		return fmt.Errorf("%w: %s does not accept contents", ErrInvalidModifier, m.action)
	}
	return nil
}

// Append inserts contents after every occurrence of match.
func Append(match string, contents Contents, opts ...Option) (*Modifier, error) {
	return New(ActionAppend, []byte(match), contents, opts...)
}

// Prepend inserts contents before every occurrence of match.
func Prepend(match string, contents Contents, opts ...Option) (*Modifier, error) {
	return New(ActionPrepend, []byte(match), contents, opts...)
}

// Replace substitutes contents for every occurrence of match.
func Replace(match string, contents Contents, opts ...Option) (*Modifier, error) {
	return New(ActionReplace, []byte(match), contents, opts...)
}

// Erase removes every occurrence of match.
func Erase(match string, opts ...Option) (*Modifier, error) {
	return New(ActionErase, []byte(match), Contents{}, opts...)
}

// Compare records whether match occurs without altering the stream.
func Compare(match string, opts ...Option) (*Modifier, error) {
	return New(ActionCompare, []byte(match), Contents{}, opts...)
}

// Action returns the modifier's action.
func (m *Modifier) Action() Action { return m.action }

// Match returns the literal match, or the pattern source for regex modifiers.
// The returned slice must not be modified.
func (m *Modifier) Match() []byte { return m.match }

// Pattern returns the compiled pattern of a regex modifier, or nil.
func (m *Modifier) Pattern() *regexp.Regexp { return m.pattern }

// Contents returns the unresolved contents.
func (m *Modifier) Contents() Contents { return m.contents }

// String satisfies [fmt.Stringer].
func (m *Modifier) String() string {
	kind := "literal"
	if m.pattern != nil {
		kind = "regex"
	}
	if m.contents.IsZero() {
		return fmt.Sprintf("%s(%s %q)", m.action, kind, m.match)
	}
	return fmt.Sprintf("%s(%s %q, %s)", m.action, kind, m.match, m.contents)
}

// ResolveContents returns the bytes to insert. File contents are read on first
// use and cached; a read failure is returned as [ErrContentUnreadable] on
// every call. Callers must not modify the returned slice.
func (m *Modifier) ResolveContents() ([]byte, error) {
	m.resolveOnce.Do(func() {
		switch m.contents.kind {
		case contentsInline:
			m.resolved = m.contents.inline
		case contentsFile:
			data, err := os.ReadFile(m.contents.path)
			if err != nil {
				m.resolveErr = fmt.Errorf("%w: %s: %w", ErrContentUnreadable, m.contents.path, err)
				return
			}
			m.resolved = data
		default:
			m.resolved = nil
		}
	})
	return m.resolved, m.resolveErr
}
