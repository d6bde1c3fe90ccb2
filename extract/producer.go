package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dhcgn/mbox2db/mbox"
	"github.com/dhcgn/mbox2db/model"
	"github.com/dhcgn/mbox2db/runner"
)

// Producer streams assembled records into the pipeline. With more than one
// worker the decode step runs in parallel while emission order stays the
// source order of the archive.
type Producer struct {
	scanner   *mbox.Scanner
	assembler *Assembler
	runner    *runner.Runner
	workers   int
	logger    *slog.Logger
}

func NewProducer(scanner *mbox.Scanner, assembler *Assembler, r *runner.Runner, workers int, logger *slog.Logger) (*Producer, error) {
	if scanner == nil {
		return nil, fmt.Errorf("mbox scanner is nil")
	}
	if assembler == nil {
		assembler = NewAssembler()
	}
	if workers < 1 {
		workers = 1
	}

	producer := &Producer{
		scanner:   scanner,
		assembler: assembler,
		runner:    r,
		workers:   workers,
		logger:    logger,
	}
	r.AddStage("mbox", producer.run)
	return producer, nil
}

func (p *Producer) run(ctx context.Context) error {
	defer p.runner.CloseRecords()
	defer p.scanner.Close()

	if p.workers == 1 {
		return p.runSequential(ctx)
	}
	return p.runParallel(ctx)
}

func (p *Producer) runSequential(ctx context.Context) error {
	out := p.runner.RecordsWriter()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.scanner.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, mbox.ErrMessageTooLarge) {
				if emitErr := emit(ctx, out, model.Envelope{Err: err}); emitErr != nil {
					return emitErr
				}
				continue
			}
			return fmt.Errorf("scan mbox: %w", err)
		}

		env := p.assemble(msg)
		if err := emit(ctx, out, env); err != nil {
			return err
		}
	}
}

// runParallel fans message decoding out to a worker pool. Results are
// re-sequenced before emission and the number of raw messages held in
// memory at once is capped.
func (p *Producer) runParallel(ctx context.Context) error {
	type job struct {
		seq int64
		msg *mbox.Message
	}
	type result struct {
		seq int64
		env model.Envelope
	}

	jobs := make(chan job, p.workers)
	results := make(chan result, p.workers*2)
	inflight := make(chan struct{}, p.workers*4)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res := result{seq: j.seq, env: p.assemble(j.msg)}
				select {
				case <-ctx.Done():
					return
				case results <- res:
				}
			}
		}()
	}

	emitDone := make(chan error, 1)
	go func() {
		out := p.runner.RecordsWriter()
		pending := make(map[int64]model.Envelope)
		var next int64
		for res := range results {
			pending[res.seq] = res.env
			for {
				env, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if err := emit(ctx, out, env); err != nil {
					emitDone <- err
					return
				}
				<-inflight
			}
		}
		emitDone <- nil
	}()

	var seq int64
	var scanErr error

scan:
	for {
		if err := ctx.Err(); err != nil {
			scanErr = err
			break
		}

		msg, err := p.scanner.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, mbox.ErrMessageTooLarge) {
				select {
				case <-ctx.Done():
					scanErr = ctx.Err()
					break scan
				case inflight <- struct{}{}:
				}
				select {
				case <-ctx.Done():
					scanErr = ctx.Err()
					break scan
				case results <- result{seq: seq, env: model.Envelope{Err: err}}:
					seq++
				}
				continue
			}
			scanErr = fmt.Errorf("scan mbox: %w", err)
			break
		}

		select {
		case <-ctx.Done():
			scanErr = ctx.Err()
			break scan
		case inflight <- struct{}{}:
		}
		select {
		case <-ctx.Done():
			scanErr = ctx.Err()
			break scan
		case jobs <- job{seq: seq, msg: msg}:
			seq++
		}
	}

	close(jobs)
	wg.Wait()
	close(results)

	if err := <-emitDone; err != nil && scanErr == nil {
		scanErr = err
	}
	return scanErr
}

func (p *Producer) assemble(msg *mbox.Message) model.Envelope {
	rec, verdict := p.assembler.Assemble(msg)
	return model.Envelope{
		Record:  rec,
		Verdict: verdict,
		Hash:    HashRaw(msg.Raw),
	}
}

func emit(ctx context.Context, out chan<- model.Envelope, env model.Envelope) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- env:
		return nil
	}
}
