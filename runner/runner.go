package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dhcgn/mbox2db/config"
	"github.com/dhcgn/mbox2db/dedup"
	"github.com/dhcgn/mbox2db/filter"
	"github.com/dhcgn/mbox2db/model"
	"github.com/dhcgn/mbox2db/stats"
)

type StageFunc func(context.Context) error

type Runner struct {
	cfg    config.Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	records chan model.Envelope
	inserts chan model.EmailRecord
	events  chan stats.Event

	policy  filter.Policy
	tracker *dedup.Tracker

	subMu sync.Mutex
	subs  []chan stats.Event

	workWG  sync.WaitGroup
	statsWG sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeRecordsOnce sync.Once
	closeInsertsOnce sync.Once
	closeEventsOnce  sync.Once
	since            time.Time
}

func New(cfg config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		records: make(chan model.Envelope, 32),
		inserts: make(chan model.EmailRecord, 32),
		events:  make(chan stats.Event, 128),
		policy:  filter.NewPolicy(cfg.IncludeSpam, cfg.IncludeTrash, cfg.IncludeSpamAndTrash),
	}
	if cfg.SkipDuplicates {
		r.tracker = dedup.NewTracker()
	}

	r.statsWG.Add(1)
	go r.dispatchEvents()

	r.AddStage("bridge", r.bridge)
	return r
}

func (r *Runner) Config() config.Config {
	return r.cfg
}

func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

func (r *Runner) Context() context.Context {
	return r.ctx
}

func (r *Runner) Policy() filter.Policy {
	return r.policy
}

func (r *Runner) RecordsWriter() chan<- model.Envelope {
	return r.records
}

func (r *Runner) CloseRecords() {
	r.closeRecordsOnce.Do(func() {
		close(r.records)
	})
}

func (r *Runner) Inserts() <-chan model.EmailRecord {
	return r.inserts
}

func (r *Runner) EmitEvent(evt stats.Event) {
	select {
	case <-r.ctx.Done():
	case r.events <- evt:
	}
}

// SubscribeStats registers an independent consumer of the event stream.
// Every subscriber sees every event. Subscribe before calling Start.
func (r *Runner) SubscribeStats(name string, fn func(context.Context, <-chan stats.Event) error) {
	ch := make(chan stats.Event, 128)
	r.subMu.Lock()
	r.subs = append(r.subs, ch)
	r.subMu.Unlock()

	r.statsWG.Add(1)
	go func() {
		defer r.statsWG.Done()
		if err := fn(r.ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
			r.fail(fmt.Errorf("%s stats: %w", name, err))
		}
	}()
}

// dispatchEvents fans the event channel out to all subscribers. After
// cancellation it keeps draining so emitters never block on a dead run.
func (r *Runner) dispatchEvents() {
	defer r.statsWG.Done()
	defer func() {
		r.subMu.Lock()
		subs := r.subs
		r.subs = nil
		r.subMu.Unlock()
		for _, ch := range subs {
			close(ch)
		}
	}()

	for evt := range r.events {
		r.subMu.Lock()
		subs := r.subs
		r.subMu.Unlock()
		for _, ch := range subs {
			select {
			case <-r.ctx.Done():
			case ch <- evt:
			}
		}
	}
}

func (r *Runner) AddStage(name string, fn StageFunc) {
	r.workWG.Add(1)
	go func() {
		defer r.workWG.Done()
		if err := fn(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.fail(fmt.Errorf("%s stage: %w", name, err))
		}
	}()
}

func (r *Runner) Start() error {
	r.since = time.Now()

	r.workWG.Wait()
	r.closeEvents()
	r.statsWG.Wait()

	r.cancel()

	err := r.err
	duration := time.Since(r.since)
	if err != nil {
		r.logger.Error("pipeline failed", "duration", duration, "err", err)
		return err
	}

	r.logger.Info("pipeline completed", "duration", duration)
	return nil
}

// bridge applies the duplicate tracker and the label policy between the
// producer and the database writer. A single broken message is counted and
// skipped, never fatal; only infrastructure failures abort the run.
func (r *Runner) bridge(ctx context.Context) error {
	defer r.closeInserts()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case envelope, ok := <-r.records:
			if !ok {
				return nil
			}

			if envelope.Err != nil {
				r.EmitEvent(stats.Event{Stage: stats.StageMbox, Type: stats.EventTypeError, Err: envelope.Err})
				r.logger.Warn("skipping unreadable message", "err", envelope.Err)
				continue
			}

			rec := envelope.Record
			r.EmitEvent(stats.Event{Stage: stats.StageBridge, Type: stats.EventTypeScanned, MessageID: rec.MessageID})

			if rec.DateRaw != "" && !rec.DateParsed.OK {
				r.EmitEvent(stats.Event{Stage: stats.StageBridge, Type: stats.EventTypeUnparsedDate, MessageID: rec.MessageID, Detail: rec.DateRaw})
			}

			if r.tracker != nil {
				if first, dup := r.tracker.Record(envelope.Hash, rec.MessageID); dup {
					r.EmitEvent(stats.Event{Stage: stats.StageBridge, Type: stats.EventTypeDuplicate, MessageID: rec.MessageID, Detail: first})
					continue
				}
			}

			if !r.policy.Allows(envelope.Verdict) {
				evtType := stats.EventTypeSkippedTrash
				if envelope.Verdict.IsSpam && !r.policy.IncludeSpam {
					evtType = stats.EventTypeSkippedSpam
				}
				r.EmitEvent(stats.Event{Stage: stats.StageBridge, Type: evtType, MessageID: rec.MessageID})
				continue
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case r.inserts <- rec:
				r.EmitEvent(stats.Event{Stage: stats.StageBridge, Type: stats.EventTypeEnqueued, MessageID: rec.MessageID})
			}
		}
	}
}

func (r *Runner) closeInserts() {
	r.closeInsertsOnce.Do(func() {
		close(r.inserts)
	})
}

func (r *Runner) closeEvents() {
	r.closeEventsOnce.Do(func() {
		close(r.events)
	})
}

func (r *Runner) fail(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	if r.err == nil {
		r.err = err
		r.cancel()
	}
	r.errMu.Unlock()
}
