package extract

import (
	"crypto/sha256"
	"encoding/base64"
	"sync/atomic"

	"github.com/dhcgn/mbox2db/dates"
	"github.com/dhcgn/mbox2db/mbox"
	"github.com/dhcgn/mbox2db/model"
)

// Assembler turns raw mbox messages into structured records. Assemble is
// safe for concurrent use; the counters are atomic.
type Assembler struct {
	assembled     atomic.Int64
	unparsedDates atomic.Int64
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble decodes one raw message into a record plus its label verdict.
// Imperfect input degrades to absent fields; Assemble never rejects a
// message.
func (a *Assembler) Assemble(msg *mbox.Message) (model.EmailRecord, model.LabelVerdict) {
	headerBlock, body := msg.HeaderBody()
	headers := ParseHeaders(headerBlock)

	rec := model.EmailRecord{
		From:        headers.First("From"),
		To:          headers.First("To"),
		Cc:          headers.First("Cc"),
		Bcc:         headers.First("Bcc"),
		Subject:     headers.First("Subject"),
		DateRaw:     headers.First("Date"),
		MessageID:   headers.First("Message-Id"),
		InReplyTo:   headers.First("In-Reply-To"),
		References:  headers.First("References"),
		ContentType: headers.First("Content-Type"),
		Labels:      headers.First("X-Gmail-Labels"),
	}

	content := ExtractBody(rec.ContentType, headers.First("Content-Transfer-Encoding"), body)
	rec.BodyPlain = content.Plain
	rec.BodyHTML = content.HTML

	rec.DateParsed = dates.Normalize(rec.DateRaw)
	if rec.DateRaw != "" && !rec.DateParsed.OK {
		a.unparsedDates.Add(1)
	}
	a.assembled.Add(1)

	return rec, ClassifyLabels(rec.Labels)
}

// Counts reports how many records were assembled and how many of them
// carried a Date header that could not be normalized.
func (a *Assembler) Counts() (assembled, unparsedDates int64) {
	return a.assembled.Load(), a.unparsedDates.Load()
}

// HashRaw fingerprints the raw message bytes for duplicate detection.
func HashRaw(raw []byte) string {
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}
