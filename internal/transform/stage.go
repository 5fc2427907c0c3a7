package transform

import (
	"bytes"
	"regexp"

	"github.com/stolasapp/forge/internal/modifier"
)

// literalStage edits every non-overlapping occurrence of match, scanning left
// to right.
type literalStage struct {
	action modifier.Action
	match  []byte
	insert []byte
	found  func()

	carry []byte
}

func (s *literalStage) process(input []byte) []byte {
	buf := make([]byte, 0, len(s.carry)+len(input))
	buf = append(buf, s.carry...)
	buf = append(buf, input...)

	out := make([]byte, 0, len(buf))
	pos := 0
	for {
		idx := bytes.Index(buf[pos:], s.match)
		if idx < 0 {
			break
		}
		out = append(out, buf[pos:pos+idx]...)
		out = s.edit(out)
		pos += idx + len(s.match)
	}

	tail := buf[pos:]
	keep := partialMatchLen(tail, s.match)
	out = append(out, tail[:len(tail)-keep]...)
	s.carry = append(s.carry[:0], tail[len(tail)-keep:]...)
	return out
}

func (s *literalStage) edit(out []byte) []byte {
	if s.found != nil {
		s.found()
	}
	switch s.action {
	case modifier.ActionAppend:
		out = append(out, s.match...)
		return append(out, s.insert...)
	case modifier.ActionPrepend:
		out = append(out, s.insert...)
		return append(out, s.match...)
	case modifier.ActionReplace:
		return append(out, s.insert...)
	case modifier.ActionErase:
		return out
	default:
		return append(out, s.match...)
	}
}

func (s *literalStage) flush() []byte {
	out := s.carry
	s.carry = nil
	return out
}

func (s *literalStage) reset() { s.carry = nil }

// partialMatchLen returns the length of the longest suffix of text that is a
// proper prefix of match.
func partialMatchLen(text, match []byte) int {
	for n := min(len(text), len(match)-1); n > 0; n-- {
		if bytes.HasPrefix(match, text[len(text)-n:]) {
			return n
		}
	}
	return 0
}

// regexStage holds its input until flushed and then edits every match of
// pattern at once.
type regexStage struct {
	action  modifier.Action
	pattern *regexp.Regexp
	insert  []byte
	found   func()

	held []byte
}

func (s *regexStage) process(input []byte) []byte {
	s.held = append(s.held, input...)
	return nil
}

func (s *regexStage) flush() []byte {
	text := s.held
	s.held = nil
	if len(text) == 0 {
		return nil
	}
	switch s.action {
	case modifier.ActionAppend:
		return s.pattern.ReplaceAllFunc(text, func(match []byte) []byte {
			return append(bytes.Clone(match), s.insert...)
		})
	case modifier.ActionPrepend:
		return s.pattern.ReplaceAllFunc(text, func(match []byte) []byte {
			return append(bytes.Clone(s.insert), match...)
		})
	case modifier.ActionReplace:
		return s.pattern.ReplaceAll(text, s.insert)
	case modifier.ActionErase:
		return s.pattern.ReplaceAll(text, nil)
	default:
		if s.found != nil && s.pattern.Match(text) {
			s.found()
		}
		return text
	}
}

func (s *regexStage) reset() { s.held = nil }
