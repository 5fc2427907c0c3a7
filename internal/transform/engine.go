// Package transform applies an ordered list of modifiers to a stream of text.
//
// Each modifier runs as its own streaming stage, and the output of one stage
// is the input of the next:
//
//	chunk → stage[0] → stage[1] → … → stage[n-1] → emitted text
//
// A literal stage holds back the longest tail of its input that could still
// grow into a match, so a match spanning two chunks is found exactly as if the
// whole text had arrived at once. Regex stages cannot know how far a match may
// extend, so they hold their entire input until the engine is flushed.
package transform

import (
	"errors"
	"fmt"
	"maps"

	"github.com/stolasapp/forge/internal/modifier"
)

// ErrFinished is returned when text is processed after [Engine.Finish]
// without an intervening [Engine.Reset].
var ErrFinished = errors.New("transform engine already finished")

// Engine applies modifiers, in order, to a stream of chunks. An Engine is not
// safe for concurrent use.
type Engine struct {
	stages   []stage
	compared map[string]bool
	finished bool
}

type stage interface {
	// process consumes input and returns the text that can no longer be
	// affected by a match.
	process(input []byte) []byte
	// flush returns any held-back text and clears it.
	flush() []byte
	// reset discards held-back text.
	reset()
}

// New resolves the contents of every modifier and returns an engine applying
// them in the order given. A contents file that cannot be read fails with
// [modifier.ErrContentUnreadable]. Compare results are keyed by match, so two
// compare modifiers with the same match fail with [modifier.ErrInvalidModifier].
func New(mods ...*modifier.Modifier) (*Engine, error) {
	engine := &Engine{
		stages:   make([]stage, 0, len(mods)),
		compared: make(map[string]bool),
	}
	for _, mod := range mods {
		insert, err := mod.ResolveContents()
		if err != nil {
			return nil, err
		}
		var found func()
		if mod.Action() == modifier.ActionCompare {
			key := string(mod.Match())
			if _, dup := engine.compared[key]; dup {
				return nil, fmt.Errorf("%w: duplicate compare %q", modifier.ErrInvalidModifier, key)
			}
			engine.compared[key] = false
			found = func() { engine.compared[key] = true }
		}
		if mod.Pattern() != nil {
			engine.stages = append(engine.stages, &regexStage{
				action:  mod.Action(),
				pattern: mod.Pattern(),
				insert:  insert,
				found:   found,
			})
			continue
		}
		engine.stages = append(engine.stages, &literalStage{
			action: mod.Action(),
			match:  mod.Match(),
			insert: insert,
			found:  found,
		})
	}
	return engine, nil
}

// Process feeds a chunk through every stage and returns the text that is now
// final. The chunk is not retained.
func (e *Engine) Process(chunk []byte) ([]byte, error) {
	if e.finished {
		return nil, ErrFinished
	}
	out := chunk
	for _, stg := range e.stages {
		if len(out) == 0 {
			return nil, nil
		}
		out = stg.process(out)
	}
	if len(e.stages) == 0 {
		out = append([]byte(nil), chunk...)
	}
	return out, nil
}

// Flush emits all held-back text as though the stream had ended, leaving the
// engine ready for more input. Matches never span a flush. Compare results
// are kept.
func (e *Engine) Flush() ([]byte, error) {
	if e.finished {
		return nil, ErrFinished
	}
	var pending []byte
	for _, stg := range e.stages {
		out := stg.process(pending)
		pending = append(out, stg.flush()...)
	}
	return pending, nil
}

// Finish flushes the engine and ends the stream. Further calls to Process,
// Flush or Finish fail with [ErrFinished] until [Engine.Reset].
func (e *Engine) Finish() ([]byte, error) {
	out, err := e.Flush()
	if err != nil {
		return nil, err
	}
	e.finished = true
	return out, nil
}

// Reset discards held-back text and compare results so the engine can be
// reused for a new stream.
func (e *Engine) Reset() {
	for _, stg := range e.stages {
		stg.reset()
	}
	for key := range e.compared {
		e.compared[key] = false
	}
	e.finished = false
}

// Compared reports, for each compare modifier's match, whether it has been
// seen in the stream so far.
func (e *Engine) Compared() map[string]bool {
	return maps.Clone(e.compared)
}
