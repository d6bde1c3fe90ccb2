package mbox

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxLineBytes bounds a single physical line. Real archives contain
// base64 bodies written as one enormous line, so the cap is generous.
const maxLineBytes = 32 << 20

const readBufferSize = 64 * 1024

var (
	// ErrMessageTooLarge reports a message that exceeded the configured
	// per-message size cap. The scanner skips it and keeps going.
	ErrMessageTooLarge = errors.New("mbox message exceeds size limit")

	errLineTooLong = errors.New("mbox line exceeds line size limit")
)

// Message is one raw message span from an mbox archive: the "From "
// separator line plus the verbatim header and body bytes that follow it.
type Message struct {
	// Separator is the envelope line without its trailing newline. It is
	// kept for diagnostics and is not part of Raw.
	Separator string

	// Raw holds the message bytes exactly as stored in the archive,
	// headers and body together. Line endings are preserved as found,
	// and ">From" escaped lines are passed through untouched.
	Raw []byte
}

// HeaderBody splits Raw at the first blank line. Messages without a blank
// line are all header.
func (m *Message) HeaderBody() (header, body []byte) {
	if len(m.Raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(m.Raw, []byte("\r\n\r\n")); idx >= 0 {
		return m.Raw[:idx], m.Raw[idx+4:]
	}
	if idx := bytes.Index(m.Raw, []byte("\n\n")); idx >= 0 {
		return m.Raw[:idx], m.Raw[idx+2:]
	}

	return m.Raw, nil
}

// Scanner reads messages from an mbox stream one at a time in a single
// forward pass. A message starts at a line beginning with "From " at column
// zero; escaped ">From" lines are body content and never terminate a
// message. Content before the first separator is ignored.
type Scanner struct {
	br     *bufio.Reader
	closer io.Closer

	nextSeparator string
	hasNext       bool
	eof           bool

	maxMessageBytes int64
}

// NewScanner returns a scanner reading from r. The caller keeps ownership
// of r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{br: bufio.NewReaderSize(r, readBufferSize)}
}

// Open opens the archive at path and returns a scanner that owns the file
// handle. Close releases it.
func Open(path string) (*Scanner, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	s := NewScanner(file)
	s.closer = file
	return s, nil
}

// Close releases the underlying file if the scanner owns one.
func (s *Scanner) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// SetMaxMessageBytes caps the size of a single message. Oversized messages
// surface as ErrMessageTooLarge from Next and the scan continues with the
// following message. Zero means no cap.
func (s *Scanner) SetMaxMessageBytes(n int64) {
	s.maxMessageBytes = n
}

// Next returns the next message in the archive, or io.EOF once it is
// exhausted. On ErrMessageTooLarge the scanner stays usable.
func (s *Scanner) Next() (*Message, error) {
	if s.eof {
		return nil, io.EOF
	}

	if !s.hasNext {
		for {
			line, err := s.readLine()
			if isSeparatorLine(line) {
				s.nextSeparator = string(bytes.TrimRight(line, "\r\n"))
				s.hasNext = true
				break
			}
			if err != nil {
				if err == io.EOF {
					s.eof = true
					return nil, io.EOF
				}
				return nil, err
			}
		}
	}

	separator := s.nextSeparator
	s.hasNext = false

	var raw bytes.Buffer
	tooLarge := false
	for {
		line, err := s.readLine()
		if len(line) > 0 {
			if isSeparatorLine(line) {
				s.nextSeparator = string(bytes.TrimRight(line, "\r\n"))
				s.hasNext = true
				break
			}
			if s.maxMessageBytes > 0 && int64(raw.Len())+int64(len(line)) > s.maxMessageBytes {
				tooLarge = true
				raw.Reset()
			}
			if !tooLarge {
				raw.Write(line)
			}
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
				break
			}
			return nil, err
		}
	}

	if tooLarge {
		return nil, fmt.Errorf("%w: %q over %d bytes", ErrMessageTooLarge, separator, s.maxMessageBytes)
	}
	return &Message{Separator: separator, Raw: raw.Bytes()}, nil
}

// readLine returns one physical line including its newline. The final line
// of an archive may lack one.
func (s *Scanner) readLine() ([]byte, error) {
	var out []byte
	for {
		chunk, err := s.br.ReadSlice('\n')
		out = append(out, chunk...)
		if len(out) > maxLineBytes {
			return nil, errLineTooLong
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return out, err
	}
}

// isSeparatorLine reports whether line opens a new message. Only the
// literal "From " prefix at column zero counts, so escaped ">From " lines
// and header fields like "From:" never split a message.
func isSeparatorLine(line []byte) bool {
	return bytes.HasPrefix(line, []byte("From "))
}
