package model

import "time"

// EmailRecord is a single structured email extracted from an mbox archive,
// in the shape the database writer stores it.
type EmailRecord struct {
	From        string
	To          string
	Cc          string
	Bcc         string
	Subject     string
	DateRaw     string
	DateParsed  ParsedDate
	MessageID   string
	InReplyTo   string
	References  string
	ContentType string
	Labels      string
	BodyPlain   string
	BodyHTML    string
}

// ParsedDate is the outcome of date normalization: either a UTC timestamp or
// an explicit unparsed state. The raw header value is kept separately and is
// never touched by normalization.
type ParsedDate struct {
	UTC time.Time
	OK  bool
}

// String renders the canonical form, which sorts lexically in
// chronological order. Unparsed dates render empty.
func (p ParsedDate) String() string {
	if !p.OK {
		return ""
	}
	return p.UTC.Format("2006-01-02 15:04:05")
}

// LabelVerdict reports the advisory Spam/Trash classification of a record.
// It states facts about the label set; whether flagged records are kept is
// decided downstream.
type LabelVerdict struct {
	IsSpam  bool
	IsTrash bool
}

// Envelope wraps an assembled record alongside an optional error encountered
// while scanning or decoding. Hash identifies the raw message bytes for
// duplicate detection.
type Envelope struct {
	Record  EmailRecord
	Verdict LabelVerdict
	Hash    string
	Err     error
}
