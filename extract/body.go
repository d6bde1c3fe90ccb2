package extract

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"strings"

	"github.com/emersion/go-message/charset"
)

// maxPartDepth bounds multipart recursion. Parts nested deeper are ignored
// so a hostile message cannot blow the stack.
const maxPartDepth = 8

var (
	errMissingBoundary  = errors.New("multipart content without boundary parameter")
	errBoundaryNotFound = errors.New("multipart boundary never appears in body")
)

// BodyContent carries the textual payloads of a message. The first
// text/plain part claims Plain and the first text/html part claims HTML;
// either may stay empty when the message has no such part.
type BodyContent struct {
	Plain    string
	HTML     string
	HasPlain bool
	HasHTML  bool
}

type partInfo struct {
	contentType string
	encoding    string
	disposition string
}

// ExtractBody resolves the textual content of a message given its declared
// Content-Type and Content-Transfer-Encoding header values and the raw body
// bytes. Multipart trees are walked depth-first in source order; attachments
// are skipped. A structurally broken multipart body degrades to the raw
// bytes as plain text rather than discarding the message.
func ExtractBody(contentType, encoding string, body []byte) BodyContent {
	var bc BodyContent
	err := walkPart(partInfo{contentType: contentType, encoding: encoding}, body, 0, &bc)
	if err != nil && !bc.HasPlain && !bc.HasHTML && len(bytes.TrimSpace(body)) > 0 {
		bc.Plain = string(body)
		bc.HasPlain = true
	}
	return bc
}

func walkPart(info partInfo, body []byte, depth int, bc *BodyContent) error {
	if depth > maxPartDepth {
		return nil
	}

	mediaType, params, err := mime.ParseMediaType(info.contentType)
	if err != nil {
		// Absent or unparsable Content-Type means classic plain text.
		mediaType, params = "text/plain", nil
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return errMissingBoundary
		}
		if !bytes.Contains(body, []byte("--"+boundary)) {
			return errBoundaryNotFound
		}
		return walkMultipart(boundary, body, depth, bc)
	}

	if strings.Contains(strings.ToLower(info.disposition), "attachment") {
		return nil
	}

	switch {
	case mediaType == "text/html":
		if !bc.HasHTML {
			bc.HTML = decodeText(info.encoding, params["charset"], body)
			bc.HasHTML = true
		}
	case strings.HasPrefix(mediaType, "text/"):
		if !bc.HasPlain {
			bc.Plain = decodeText(info.encoding, params["charset"], body)
			bc.HasPlain = true
		}
	}
	return nil
}

func walkMultipart(boundary string, body []byte, depth int, bc *BodyContent) error {
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	parts := 0
	for {
		// NextRawPart keeps the transfer encoding intact so every part
		// goes through the same decode path.
		part, err := mr.NextRawPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if parts == 0 {
				return err
			}
			// Some parts were readable; salvage what we have.
			return nil
		}
		parts++

		data, err := io.ReadAll(part)
		if err != nil {
			continue
		}

		sub := partInfo{
			contentType: part.Header.Get("Content-Type"),
			encoding:    part.Header.Get("Content-Transfer-Encoding"),
			disposition: part.Header.Get("Content-Disposition"),
		}
		_ = walkPart(sub, data, depth+1, bc)

		if bc.HasPlain && bc.HasHTML {
			return nil
		}
	}
}

// decodeText reverses the transfer encoding and converts the declared
// charset to UTF-8. Every failure keeps the bytes it has instead of
// dropping them.
func decodeText(encoding, charsetName string, body []byte) string {
	decoded := decodeTransfer(encoding, body)
	return decodeCharset(charsetName, decoded)
}

func decodeTransfer(encoding string, body []byte) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(body)))
		if err != nil {
			return body
		}
		return decoded
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
		if err != nil {
			return body
		}
		return decoded
	default:
		// 7bit, 8bit, binary and anything unrecognized pass through.
		return body
	}
}

func decodeCharset(charsetName string, body []byte) string {
	charsetName = strings.ToLower(strings.TrimSpace(charsetName))
	if charsetName == "" || charsetName == "utf-8" || charsetName == "us-ascii" {
		return string(body)
	}
	r, err := charset.Reader(charsetName, bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	converted, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(converted)
}
