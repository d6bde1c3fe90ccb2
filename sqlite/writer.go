package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dhcgn/mbox2db/model"
	"github.com/dhcgn/mbox2db/runner"
	"github.com/dhcgn/mbox2db/stats"
)

type Options struct {
	Path      string
	Overwrite bool
	DryRun    bool
}

// Writer is the pipeline stage that persists records. It consumes the
// insert channel in order, so the autoincrement ids follow the order of
// the source archive.
type Writer struct {
	opts    Options
	runner  *runner.Runner
	inserts <-chan model.EmailRecord
	logger  *slog.Logger
}

func NewWriter(opts Options, r *runner.Runner, logger *slog.Logger) (*Writer, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &Writer{
		opts:    opts,
		runner:  r,
		inserts: r.Inserts(),
		logger:  logger,
	}
	r.AddStage("sqlite", writer.run)
	return writer, nil
}

func (w *Writer) run(ctx context.Context) error {
	if w.opts.DryRun {
		return w.runDry(ctx)
	}

	if w.opts.Overwrite {
		if err := removeDatabase(w.opts.Path); err != nil {
			return err
		}
	}

	db, err := Open(w.opts.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-w.inserts:
			if !ok {
				if err := tx.Commit(); err != nil {
					return fmt.Errorf("commit transaction: %w", err)
				}
				w.logger.Info("database written", "path", w.opts.Path, "inserted", inserted)
				return nil
			}

			if err := insertRecord(ctx, stmt, rec); err != nil {
				err = fmt.Errorf("insert message %s: %w", rec.MessageID, err)
				w.runner.EmitEvent(stats.Event{Stage: stats.StageDB, Type: stats.EventTypeError, MessageID: rec.MessageID, Err: err})
				return err
			}
			inserted++
			w.runner.EmitEvent(stats.Event{Stage: stats.StageDB, Type: stats.EventTypeInserted, MessageID: rec.MessageID})
		}
	}
}

// runDry drains the insert channel without touching the filesystem.
func (w *Writer) runDry(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-w.inserts:
			if !ok {
				w.logger.Info("dry run complete", "path", w.opts.Path)
				return nil
			}
			w.runner.EmitEvent(stats.Event{Stage: stats.StageDB, Type: stats.EventTypeDryRunInsert, MessageID: rec.MessageID})
			w.logger.Debug("dry-run insert", "messageID", rec.MessageID)
		}
	}
}

// removeDatabase deletes the database file together with the WAL sidecar
// files a previous run may have left behind.
func removeDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func insertRecord(ctx context.Context, stmt *sql.Stmt, rec model.EmailRecord) error {
	var dateParsed sql.NullString
	if rec.DateParsed.OK {
		dateParsed = sql.NullString{String: rec.DateParsed.String(), Valid: true}
	}

	_, err := stmt.ExecContext(ctx,
		rec.From,
		rec.To,
		rec.Cc,
		rec.Bcc,
		rec.Subject,
		rec.DateRaw,
		dateParsed,
		rec.MessageID,
		rec.InReplyTo,
		rec.References,
		rec.ContentType,
		rec.BodyPlain,
		rec.BodyHTML,
	)
	return err
}
