package progress

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/pterm/pterm"

	"github.com/dhcgn/mbox2db/filter"
	"github.com/dhcgn/mbox2db/stats"
)

type captureStream struct {
	fn func(context.Context, <-chan stats.Event) error
}

func (c *captureStream) SubscribeStats(name string, fn func(context.Context, <-chan stats.Event) error) {
	c.fn = fn
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	pterm.SetDefaultOutput(&buf)
	pterm.DisableColor()
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableColor()
	})
	return &buf
}

func TestSpinnerDisabledOutsideInfoLevel(t *testing.T) {
	for _, level := range []string{"debug", "warn", "error"} {
		s := New(level)
		if s.enabled {
			t.Errorf("Spinner must be disabled at level %q", level)
		}

		// All operations are no-ops on a disabled spinner.
		s.Update(stats.Event{Type: stats.EventTypeScanned})
		s.Stop("done")
		s.Abort()

		stream := &captureStream{}
		NewReporter(stream, s, Options{})
		if stream.fn != nil {
			t.Errorf("Reporter must not subscribe at level %q", level)
		}
	}
}

func TestReporterSummaryAndHints(t *testing.T) {
	tests := []struct {
		name       string
		policy     filter.Policy
		spamSkips  int
		trashSkips int
		wantHint   string
	}{
		{
			name:       "default policy hints at the combined flag",
			spamSkips:  2,
			trashSkips: 1,
			wantHint:   "pass --include-spam-and-trash to include them",
		},
		{
			name:       "spam included hints at trash",
			policy:     filter.Policy{IncludeSpam: true},
			trashSkips: 3,
			wantHint:   "pass --include-trash to include them",
		},
		{
			name:      "trash included hints at spam",
			policy:    filter.Policy{IncludeTrash: true},
			spamSkips: 1,
			wantHint:  "pass --include-spam to include them",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)

			stream := &captureStream{}
			spinner := New("info")
			reporter := NewReporter(stream, spinner, Options{Output: "out.db", Policy: tt.policy})
			if stream.fn == nil {
				t.Fatal("Expected the reporter to subscribe")
			}

			events := make(chan stats.Event, 16)
			for i := 0; i < 3; i++ {
				events <- stats.Event{Type: stats.EventTypeScanned}
			}
			for i := 0; i < tt.spamSkips; i++ {
				events <- stats.Event{Type: stats.EventTypeSkippedSpam}
			}
			for i := 0; i < tt.trashSkips; i++ {
				events <- stats.Event{Type: stats.EventTypeSkippedTrash}
			}
			events <- stats.Event{Type: stats.EventTypeInserted}
			close(events)

			if err := stream.fn(context.Background(), events); err != nil {
				t.Fatalf("Failed to consume events: %v", err)
			}

			out := buf.String()
			if !strings.Contains(out, tt.wantHint) {
				t.Errorf("Missing hint %q in output:\n%s", tt.wantHint, out)
			}
			if !strings.Contains(out, "Database written to: out.db") {
				t.Errorf("Missing output path in:\n%s", out)
			}
			if !strings.Contains(out, "Successfully converted 1 emails to database") {
				t.Errorf("Missing success line in:\n%s", out)
			}

			summary := reporter.Summary()
			if summary.Scanned != 3 || summary.Inserted != 1 {
				t.Errorf("Summary = %+v", summary)
			}
		})
	}
}

func TestReporterNoHintWithoutSkips(t *testing.T) {
	buf := captureOutput(t)

	stream := &captureStream{}
	spinner := New("info")
	NewReporter(stream, spinner, Options{Output: "out.db"})

	events := make(chan stats.Event, 4)
	events <- stats.Event{Type: stats.EventTypeScanned}
	events <- stats.Event{Type: stats.EventTypeInserted}
	close(events)

	if err := stream.fn(context.Background(), events); err != nil {
		t.Fatalf("Failed to consume events: %v", err)
	}
	if strings.Contains(buf.String(), "skipped (pass") {
		t.Errorf("Unexpected skip hint:\n%s", buf.String())
	}
}

func TestReporterDryRun(t *testing.T) {
	buf := captureOutput(t)

	stream := &captureStream{}
	spinner := New("info")
	NewReporter(stream, spinner, Options{Output: "out.db", DryRun: true})

	events := make(chan stats.Event, 8)
	events <- stats.Event{Type: stats.EventTypeScanned}
	events <- stats.Event{Type: stats.EventTypeDryRunInsert}
	close(events)

	if err := stream.fn(context.Background(), events); err != nil {
		t.Fatalf("Failed to consume events: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Dry run complete, 1 emails would be inserted") {
		t.Errorf("Missing dry-run line in:\n%s", out)
	}
	if strings.Contains(out, "Database written to") {
		t.Errorf("Dry run must not report a database path:\n%s", out)
	}
}

func TestReporterAbortsOnCancel(t *testing.T) {
	buf := captureOutput(t)

	stream := &captureStream{}
	spinner := New("info")
	NewReporter(stream, spinner, Options{Output: "out.db"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan stats.Event)
	close(events)

	if err := stream.fn(ctx, events); err != context.Canceled {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if strings.Contains(buf.String(), "Summary") {
		t.Errorf("Aborted run must not print the summary:\n%s", buf.String())
	}
}
