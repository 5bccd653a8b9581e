package lspserver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/cxxls/cxxls/internal/errors"
)

// frameReader reads `Content-Length: <n>\r\n\r\n<body>`-framed messages off
// an underlying stream. `Content-Type` is accepted and ignored; any other
// header is a framing error. Stricter than a client-side reader has any
// reason to be, since a server has no business tolerating an editor that
// can't even get the base protocol right.
type frameReader struct {
	r *bufio.Reader
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: bufio.NewReader(r)}
}

// readMessage reads one message body. A returned error is always a
// *errors.CoreError of KindFraming, and framing errors are always fatal:
// the input stream is unrecoverable once framing is lost.
func (fr *frameReader) readMessage() ([]byte, error) {
	contentLength := -1
	for {
		line, err := fr.r.ReadString('\n')
		if err != nil {
			return nil, errors.New(errors.KindFraming, "read_header", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		switch {
		case hasHeader(line, "Content-Length"):
			n, err := strconv.Atoi(strings.TrimSpace(headerValue(line)))
			if err != nil || n < 0 {
				return nil, errors.New(errors.KindFraming, "parse_content_length", fmt.Errorf("invalid Content-Length %q", line))
			}
			contentLength = n
		case hasHeader(line, "Content-Type"):
			// accepted, ignored
		default:
			return nil, errors.New(errors.KindFraming, "unknown_header", fmt.Errorf("unrecognized header %q", line))
		}
	}
	if contentLength < 0 {
		return nil, errors.New(errors.KindFraming, "missing_content_length", fmt.Errorf("no Content-Length header"))
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(fr.r, body); err != nil {
		return nil, errors.New(errors.KindFraming, "read_body", err)
	}
	return body, nil
}

func hasHeader(line, name string) bool {
	return len(line) >= len(name) && strings.EqualFold(line[:len(name)], name) &&
		len(line) > len(name) && line[len(name)] == ':'
}

func headerValue(line string) string {
	i := strings.IndexByte(line, ':')
	return line[i+1:]
}

// frameWriter writes Content-Length-framed messages, serialized against
// concurrent writers by its own mutex (the stdout writer is one dedicated
// goroutine, but tests write directly without it).
type frameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newFrameWriter(w io.Writer) *frameWriter {
	return &frameWriter{w: w}
}

func (fw *frameWriter) writeMessage(body []byte) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, err := fmt.Fprintf(fw.w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := fw.w.Write(body)
	return err
}
