package sqlite

// Schema creates the emails table and its query indexes. Every statement
// is idempotent so an existing database can be appended to.
const Schema = `
CREATE TABLE IF NOT EXISTS emails (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_addr TEXT,
    to_addr TEXT,
    cc TEXT,
    bcc TEXT,
    subject TEXT,
    date TEXT,
    date_parsed TEXT,
    message_id TEXT,
    in_reply_to TEXT,
    refs TEXT,
    content_type TEXT,
    body_plain TEXT,
    body_html TEXT
);

CREATE INDEX IF NOT EXISTS idx_from ON emails(from_addr);
CREATE INDEX IF NOT EXISTS idx_date ON emails(date);
CREATE INDEX IF NOT EXISTS idx_date_parsed ON emails(date_parsed);
CREATE INDEX IF NOT EXISTS idx_subject ON emails(subject);
`

// pragmas tune the connection for a bulk one-shot import.
const pragmas = `
PRAGMA journal_mode=WAL;
PRAGMA synchronous=NORMAL;
PRAGMA cache_size=-64000;
PRAGMA temp_store=MEMORY;
`

const insertQuery = `
INSERT INTO emails (from_addr, to_addr, cc, bcc, subject, date, date_parsed, message_id, in_reply_to, refs, content_type, body_plain, body_html)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
