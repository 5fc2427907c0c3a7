// Package build sequences build configurations: it infers each build's type,
// constructs the matching pipeline runner, runs the builds one after another
// and records the outcome of each.
package build

import (
	"fmt"
	"strings"

	"github.com/stolasapp/forge/internal/minify"
)

const (
	// ErrUnknownBuildType is returned when a build declares no type and its
	// output extension is missing or unrecognized.
	ErrUnknownBuildType Error = "unknown build type"
)

// Error is an error type returned by the coordinator.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// RunError identifies the build that failed.
type RunError struct {
	Name string
	Err  error
}

// Error satisfies [error].
func (e *RunError) Error() string {
	return fmt.Sprintf("build %q failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying failure.
func (e *RunError) Unwrap() error { return e.Err }

// Kind is the pipeline a build runs through.
type Kind string

// Supported build kinds.
const (
	KindPlain Kind = "plain"
	KindJS    Kind = "js"
	KindCSS   Kind = "css"
	KindHTML  Kind = "html"
	KindCopy  Kind = "copy"
	KindMove  Kind = "move"
)

// InferKind returns the explicit kind if set, otherwise the kind implied by
// the output's extension, ignoring case.
func InferKind(explicit, output string) (Kind, error) {
	if explicit != "" {
		switch name := strings.ToLower(strings.TrimSpace(explicit)); name {
		case string(KindCopy), string(KindMove):
			return Kind(name), nil
		}
		typ, err := minify.ParseType(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownBuildType, explicit)
		}
		return kindOf(typ), nil
	}
	typ, ok := minify.TypeFromPath(output)
	if !ok {
		return "", fmt.Errorf("%w: cannot infer a type from output %q", ErrUnknownBuildType, output)
	}
	return kindOf(typ), nil
}

func kindOf(typ minify.Type) Kind {
	switch typ {
	case minify.JS:
		return KindJS
	case minify.CSS:
		return KindCSS
	case minify.HTML:
		return KindHTML
	default:
		return KindPlain
	}
}

// MinifyType returns the content type assembled by a file build.
func (k Kind) MinifyType() minify.Type {
	switch k {
	case KindJS:
		return minify.JS
	case KindCSS:
		return minify.CSS
	case KindHTML:
		return minify.HTML
	default:
		return minify.Plain
	}
}

// IsFileOp reports whether the kind copies or moves files rather than
// assembling an output.
func (k Kind) IsFileOp() bool {
	return k == KindCopy || k == KindMove
}
