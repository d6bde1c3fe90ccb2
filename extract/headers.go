// Package extract turns raw mbox messages into structured email records:
// header decoding, body extraction and label classification.
package extract

import (
	"bytes"
	"mime"
	"strings"

	"github.com/emersion/go-message/charset"
)

// wordDecoder handles RFC 2047 encoded words. The charset reader knows the
// legacy encodings that still show up in old archives.
var wordDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// Header is one decoded name/value pair from a message header block.
type Header struct {
	Name  string
	Value string
}

// HeaderMap holds the decoded headers of one message in source order.
// Lookups are case-insensitive and repeated names keep every occurrence.
type HeaderMap struct {
	fields []Header
}

// ParseHeaders unfolds and decodes a raw header block. Folded continuation
// lines are joined with a single space, encoded words are decoded, and
// lines without a colon are dropped. It never fails; a garbled block just
// yields fewer headers.
func ParseHeaders(block []byte) *HeaderMap {
	h := &HeaderMap{}

	var name, value string
	flush := func() {
		if name != "" {
			h.fields = append(h.fields, Header{Name: name, Value: decodeValue(value)})
			name, value = "", ""
		}
	}

	for _, rawLine := range bytes.Split(block, []byte("\n")) {
		line := strings.TrimRight(string(rawLine), "\r")
		if line == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			cont := strings.TrimLeft(line, " \t")
			if name == "" {
				// Continuation with nothing to continue; treat the
				// content as a standalone fragment and move on.
				continue
			}
			if cont != "" {
				if value != "" {
					value += " "
				}
				value += cont
			}
			continue
		}

		flush()

		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}
		name = strings.TrimSpace(line[:idx])
		value = strings.TrimSpace(line[idx+1:])
	}
	flush()

	return h
}

// First returns the first occurrence of name, or the empty string.
func (h *HeaderMap) First(name string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns every occurrence of name in source order.
func (h *HeaderMap) Values(name string) []string {
	var out []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Fields returns all headers in source order.
func (h *HeaderMap) Fields() []Header {
	return h.fields
}

// Len reports the number of parsed headers.
func (h *HeaderMap) Len() int {
	return len(h.fields)
}

// decodeValue resolves RFC 2047 encoded words. Values the decoder rejects,
// including unknown charsets, are kept byte for byte.
func decodeValue(v string) string {
	if !strings.Contains(v, "=?") {
		return v
	}
	decoded, err := wordDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}
