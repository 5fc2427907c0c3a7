package transform

import (
	"errors"
	"io"
)

// defaultChunkSize is the read size used by [Engine.Reader].
const defaultChunkSize = 32 * 1024

// Writer is an [io.WriteCloser] that transforms everything written to it
// before passing it on. Closing the Writer finishes the engine; it does not
// close the underlying writer.
type Writer struct {
	engine *Engine
	dst    io.Writer
}

// Writer returns a [Writer] sending transformed text to dst.
func (e *Engine) Writer(dst io.Writer) *Writer {
	return &Writer{engine: e, dst: dst}
}

// Write satisfies [io.Writer].
func (w *Writer) Write(chunk []byte) (int, error) {
	out, err := w.engine.Process(chunk)
	if err != nil {
		return 0, err
	}
	if err = w.emit(out); err != nil {
		return 0, err
	}
	return len(chunk), nil
}

// Flush writes held-back text without ending the stream. See [Engine.Flush].
func (w *Writer) Flush() error {
	out, err := w.engine.Flush()
	if err != nil {
		return err
	}
	return w.emit(out)
}

// Close satisfies [io.Closer].
func (w *Writer) Close() error {
	out, err := w.engine.Finish()
	if err != nil {
		return err
	}
	return w.emit(out)
}

func (w *Writer) emit(out []byte) error {
	if len(out) == 0 {
		return nil
	}
	_, err := w.dst.Write(out)
	return err
}

// reader pulls chunks from src on demand and yields the transformed stream.
type reader struct {
	engine  *Engine
	src     io.Reader
	chunk   []byte
	pending []byte
	done    bool
}

// Reader returns an [io.Reader] over the transformed contents of src. The
// engine is finished when src is exhausted.
func (e *Engine) Reader(src io.Reader) io.Reader {
	return &reader{engine: e, src: src, chunk: make([]byte, defaultChunkSize)}
}

func (r *reader) Read(dst []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		n, err := r.src.Read(r.chunk)
		if n > 0 {
			out, perr := r.engine.Process(r.chunk[:n])
			if perr != nil {
				return 0, perr
			}
			r.pending = out
		}
		switch {
		case errors.Is(err, io.EOF):
			out, ferr := r.engine.Finish()
			if ferr != nil {
				return 0, ferr
			}
			r.pending = append(r.pending, out...)
			r.done = true
		case err != nil:
			return 0, err
		}
	}
	n := copy(dst, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
