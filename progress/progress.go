package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/dhcgn/mbox2db/filter"
	"github.com/dhcgn/mbox2db/stats"
)

// Spinner shows live conversion progress. The number of messages in an
// mbox archive is unknown until the scan finishes, so this is a spinner
// rather than a bar.
type Spinner struct {
	spinner  *pterm.SpinnerPrinter
	mu       sync.Mutex
	scanned  int
	skipped  int
	unparsed int
	enabled  bool
}

// New creates a spinner when logLevel is "info". Any other level leaves
// the terminal to the structured log output.
func New(logLevel string) *Spinner {
	enabled := logLevel == "info"

	s := &Spinner{enabled: enabled}
	if enabled {
		sp, _ := pterm.DefaultSpinner.WithText("Starting conversion...").Start()
		s.spinner = sp
	}
	return s
}

// Update folds one event into the display. The text refreshes every 100
// scanned messages; errors print above the spinner.
func (s *Spinner) Update(evt stats.Event) {
	if !s.enabled || s.spinner == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.Type {
	case stats.EventTypeScanned:
		s.scanned++
		if s.scanned%100 == 0 {
			s.spinner.UpdateText(fmt.Sprintf("Processed %d messages (%d skipped, %d unparsed dates)", s.scanned, s.skipped, s.unparsed))
		}
	case stats.EventTypeSkippedSpam, stats.EventTypeSkippedTrash, stats.EventTypeDuplicate:
		s.skipped++
	case stats.EventTypeUnparsedDate:
		s.unparsed++
	case stats.EventTypeError:
		if evt.Err != nil {
			pterm.Error.Printf("Warning: %v\n", evt.Err)
		}
	}
}

// Stop finalizes the spinner with a success message.
func (s *Spinner) Stop(message string) {
	if !s.enabled || s.spinner == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Success(message)
}

// Abort finalizes the spinner after a failed run.
func (s *Spinner) Abort() {
	if !s.enabled || s.spinner == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Fail("Conversion aborted")
}

// Subscriber adapts the spinner to the stats event stream.
func (s *Spinner) Subscriber(ctx context.Context, events <-chan stats.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			s.Update(evt)
		}
	}
}

// Options carries what the end-of-run report needs to know about the run.
type Options struct {
	Output string
	DryRun bool
	Policy filter.Policy
}

// Reporter drives the spinner and prints the human-readable summary once
// the event stream ends. It is only wired up when the spinner is enabled;
// structured logging stays with the stats reporter.
type Reporter struct {
	spinner   *Spinner
	collector *stats.Collector
	opts      Options
	started   time.Time
}

func NewReporter(stream stats.EventStream, spinner *Spinner, opts Options) *Reporter {
	reporter := &Reporter{
		spinner:   spinner,
		collector: stats.NewCollector(),
		opts:      opts,
		started:   time.Now(),
	}

	if spinner != nil && spinner.enabled {
		stream.SubscribeStats("progress", reporter.consume)
	}

	return reporter
}

func (pr *Reporter) consume(ctx context.Context, events <-chan stats.Event) error {
	for {
		select {
		case <-ctx.Done():
			pr.spinner.Abort()
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					pr.spinner.Abort()
					return ctx.Err()
				}
				pr.finish()
				return nil
			}
			pr.collector.Apply(evt)
			pr.spinner.Update(evt)
		}
	}
}

func (pr *Reporter) finish() {
	summary := pr.collector.Snapshot()
	duration := time.Since(pr.started).Round(time.Millisecond)

	converted := summary.Inserted
	success := fmt.Sprintf("Successfully converted %d emails to database", converted)
	if pr.opts.DryRun {
		converted = summary.DryRunInserts
		success = fmt.Sprintf("Dry run complete, %d emails would be inserted", converted)
	}
	pr.spinner.Stop(success)

	pterm.Println()
	pterm.DefaultSection.Println("Summary")
	pterm.Info.Printf("Duration: %v\n", duration)
	pterm.Info.Printf("Scanned: %d\n", summary.Scanned)
	pterm.Info.Printf("Inserted: %d\n", converted)
	pterm.Info.Printf("Unparsed dates: %d\n", summary.UnparsedDates)
	pterm.Info.Printf("Duplicates (skipped): %d\n", summary.Duplicates)
	pterm.Info.Printf("Errors: %d\n", summary.Errors)
	if summary.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", summary.LastError)
	}

	pr.printSkipHint(summary)

	if !pr.opts.DryRun {
		pterm.Info.Printf("Database written to: %s\n", pr.opts.Output)
	}
}

// printSkipHint tells the user how to keep the records the policy dropped.
func (pr *Reporter) printSkipHint(summary stats.Summary) {
	skipped := summary.SkippedSpam + summary.SkippedTrash
	if skipped == 0 {
		return
	}

	switch {
	case !pr.opts.Policy.IncludeSpam && !pr.opts.Policy.IncludeTrash:
		pterm.Info.Printf("%d Spam/Trash emails skipped (pass --include-spam-and-trash to include them)\n", skipped)
	case !pr.opts.Policy.IncludeSpam:
		pterm.Info.Printf("%d Spam emails skipped (pass --include-spam to include them)\n", skipped)
	case !pr.opts.Policy.IncludeTrash:
		pterm.Info.Printf("%d Trash emails skipped (pass --include-trash to include them)\n", skipped)
	}
}

// Summary exposes the collected counts, mostly for tests.
func (pr *Reporter) Summary() stats.Summary {
	return pr.collector.Snapshot()
}
