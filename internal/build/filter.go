package build

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/stolasapp/forge/internal/config"
)

// Filter selects builds with a CEL expression over the variables name,
// version, kind, output, minify and inputs.
type Filter struct {
	prog cel.Program
}

// NewFilter compiles expr, which must evaluate to a bool.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("version", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("output", cel.StringType),
		cel.Variable("minify", cel.BoolType),
		cel.Variable("inputs", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if err = issues.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile filter: %w", err)
	}
	if outType := ast.OutputType(); !outType.IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter expression must return bool but got %s", outType.String())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter program: %w", err)
	}
	return &Filter{prog: prog}, nil
}

// Match reports whether build satisfies the filter. A build whose kind
// cannot be inferred is matched with an empty kind.
func (f *Filter) Match(ctx context.Context, build config.Build) (bool, error) {
	kind, _ := InferKind(build.Type, build.Output)
	inputs := make([]string, len(build.Input))
	for idx, in := range build.Input {
		inputs[idx] = in.File
	}
	val, _, err := f.prog.ContextEval(ctx, map[string]any{
		"name":    build.Label(),
		"version": build.Version,
		"kind":    string(kind),
		"output":  build.Output,
		"minify":  build.Minify,
		"inputs":  inputs,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter: %w", err)
	}
	matched, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", val.Value())
	}
	return matched, nil
}

// Apply returns the builds matching the filter, preserving order.
func (f *Filter) Apply(ctx context.Context, builds []config.Build) ([]config.Build, error) {
	var out []config.Build
	for _, build := range builds {
		matched, err := f.Match(ctx, build)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, build)
		}
	}
	return out, nil
}
