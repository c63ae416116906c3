package notifier

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/boardsync/internal/model"
)

func TestLogNotifier_Notify_success(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	now := time.Now()

	err := n.Notify(model.RunSummary{
		RunID: "r1", StartedAt: now.Add(-time.Second), FinishedAt: now,
		Stats: model.ProcessingStats{Total: 2, Created: 2},
	})
	if err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
	out := buf.String()
	if !strings.Contains(out, "run complete") || !strings.Contains(out, "created=2") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestLogNotifier_Notify_failedRunLogsError(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(model.RunSummary{RunID: "r2", Err: errors.New("boom")}); err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "boom") {
		t.Errorf("expected error-level log with cause, got: %s", out)
	}
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(model.RunSummary) error {
	c.calls++
	return c.err
}

func TestMulti_NotifiesAllAndJoinsErrors(t *testing.T) {
	failing := &countingNotifier{err: errors.New("webhook down")}
	ok := &countingNotifier{}

	err := Multi{failing, ok}.Notify(model.RunSummary{RunID: "r"})
	if err == nil || !strings.Contains(err.Error(), "webhook down") {
		t.Errorf("expected joined error, got %v", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", failing.calls, ok.calls)
	}
}
