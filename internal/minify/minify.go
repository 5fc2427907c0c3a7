// Package minify collapses fully assembled JS, CSS and HTML text.
package minify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// ErrUnknownType is returned when a content type name is not recognized.
var ErrUnknownType = errors.New("unknown content type")

// Type is the content category of an assembled output.
type Type int

// Supported content types. Plain text is never altered by minification.
const (
	Plain Type = iota
	JS
	CSS
	HTML
)

var (
	typeNames = [...]string{
		Plain: "plain",
		JS:    "js",
		CSS:   "css",
		HTML:  "html",
	}

	mediaTypes = [...]string{
		JS:   "application/javascript",
		CSS:  "text/css",
		HTML: "text/html",
	}

	// Aliases accepted by ParseType and file extensions accepted by
	// TypeFromPath.
	typeAliases = map[string]Type{
		"plain":      Plain,
		"none":       Plain,
		"text":       Plain,
		"txt":        Plain,
		"js":         JS,
		"mjs":        JS,
		"cjs":        JS,
		"javascript": JS,
		"css":        CSS,
		"html":       HTML,
		"htm":        HTML,
	}

	minifier = newMinifier()
)

func newMinifier() *tdminify.M {
	m := tdminify.New()
	m.AddFunc(mediaTypes[CSS], css.Minify)
	m.AddFunc(mediaTypes[JS], js.Minify)
	m.Add(mediaTypes[HTML], &html.Minifier{
		KeepComments:     true,
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

// ParseType converts a case-insensitive type name or alias into a [Type].
func ParseType(name string) (Type, error) {
	if typ, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return typ, nil
	}
	return Plain, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// TypeFromPath infers a [Type] from the extension of path, ignoring case.
// It returns false if the extension is missing or not recognized.
func TypeFromPath(path string) (Type, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return Plain, false
	}
	typ, ok := typeAliases[strings.ToLower(ext)]
	return typ, ok
}

// String satisfies [fmt.Stringer].
func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// MarshalText satisfies [encoding.TextMarshaler].
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText satisfies [encoding.TextUnmarshaler].
func (t *Type) UnmarshalText(text []byte) (err error) {
	*t, err = ParseType(string(text))
	return err
}

// Minify returns the minified form of text. Plain text is returned unchanged.
// Malformed input is reported as an error rather than partially minified.
func Minify(text []byte, typ Type) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(text))
	if err := Stream(&out, bytes.NewReader(text), typ); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Stream minifies everything read from src into dst. The minifier needs the
// complete text, so nothing is written to dst for HTML, CSS or JS until src is
// exhausted.
func Stream(dst io.Writer, src io.Reader, typ Type) error {
	if typ == Plain {
		if _, err := io.Copy(dst, src); err != nil {
			return fmt.Errorf("failed to copy plain text: %w", err)
		}
		return nil
	}
	if typ < 0 || int(typ) >= len(mediaTypes) {
		return fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	text, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read %s for minification: %w", typ, err)
	}
	out, err := minifier.Bytes(mediaTypes[typ], text)
	if err != nil {
		return fmt.Errorf("failed to minify %s: %w", typ, err)
	}
	if typ == JS {
		out = keepTerminator(text, out)
	}
	if _, err = dst.Write(out); err != nil {
		return fmt.Errorf("failed to write minified %s: %w", typ, err)
	}
	return nil
}

// keepTerminator restores the final semicolon the JS minifier drops, so that
// a minified script can still be concatenated with another.
func keepTerminator(text, out []byte) []byte {
	if len(out) == 0 || bytes.HasSuffix(out, []byte(";")) ||
		!bytes.HasSuffix(bytes.TrimSpace(text), []byte(";")) {
		return out
	}
	return append(out, ';')
}
