package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// utf8BOM is the UTF-8 byte order mark that some editors add to files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	// minChardetConfidence is the minimum confidence level required to trust
	// chardet's detection over the default Windows-1252 fallback.
	minChardetConfidence = 50

	// sniffLen is how much of a source is inspected to pick its encoding.
	sniffLen = 1024
)

// NewUTF8Reader returns a reader producing src as UTF-8 without a leading byte
// order mark. A declared charset wins; otherwise the encoding is detected from
// the first bytes of src:
//
//  1. Use charset.DetermineEncoding (checks BOM, Content-Type, meta tags)
//  2. If detection is uncertain and the text is not valid UTF-8, use chardet
//     for statistical detection of non-UTF-8 encodings
//  3. Decode to UTF-8 and strip the BOM
func NewUTF8Reader(src io.Reader, contentType, declared string, logger *slog.Logger) (io.Reader, error) {
	buffered := bufio.NewReaderSize(src, sniffLen)

	var enc encoding.Encoding
	if declared != "" {
		var err error
		if enc, err = htmlindex.Get(declared); err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", declared, err)
		}
	} else {
		peek, err := buffered.Peek(sniffLen)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
		enc = detectEncoding(trimPartialRune(peek), contentType, logger)
	}

	var decoded io.Reader = buffered
	if enc != encoding.Nop && enc != unicode.UTF8 {
		decoded = enc.NewDecoder().Reader(buffered)
	}
	return stripBOM(decoded)
}

func detectEncoding(peek []byte, contentType string, logger *slog.Logger) encoding.Encoding {
	enc, name, certain := charset.DetermineEncoding(peek, contentType)
	switch {
	case certain:
		return enc
	case utf8.Valid(peek):
		// An ASCII prefix is reported as windows-1252, which would mangle
		// UTF-8 further into the file.
		return unicode.UTF8
	}
	if detectedEnc, detectedName := detectWithChardet(peek, logger); detectedEnc != nil {
		enc, name = detectedEnc, detectedName
	}
	logger.Debug("encoding detection uncertain",
		slog.String("encoding", name),
		slog.String("content_type", contentType))
	return enc
}

// detectWithChardet uses ICU-based statistical detection for plain text.
// Returns nil if detection fails or confidence is too low.
func detectWithChardet(input []byte, logger *slog.Logger) (encoding.Encoding, string) {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(input)
	if err != nil || result.Confidence < minChardetConfidence {
		return nil, ""
	}

	// chardet sometimes returns names not in the HTML index
	enc, err := htmlindex.Get(result.Charset)
	if err != nil {
		return nil, ""
	}

	logger.Debug("chardet detection",
		slog.String("charset", result.Charset),
		slog.Int("confidence", result.Confidence))

	return enc, result.Charset
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of a
// peeked prefix so that it does not look like invalid UTF-8.
func trimPartialRune(peek []byte) []byte {
	for cut := 1; cut < utf8.UTFMax && cut <= len(peek); cut++ {
		start := len(peek) - cut
		if utf8.RuneStart(peek[start]) {
			if !utf8.FullRune(peek[start:]) {
				return peek[:start]
			}
			break
		}
	}
	return peek
}

func stripBOM(src io.Reader) (io.Reader, error) {
	buffered := bufio.NewReader(src)
	head, err := buffered.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode to UTF-8: %w", err)
	}
	if bytes.Equal(head, utf8BOM) {
		if _, err = buffered.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}
	return buffered, nil
}
