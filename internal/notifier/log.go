package notifier

import (
	"log/slog"
	"time"

	"github.com/amishk599/boardsync/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes run summaries to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each run summary via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the run counters. A failed run is logged at error level.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(sum model.RunSummary) error {
	args := []any{
		"run_id", sum.RunID,
		"total", sum.Stats.Total,
		"created", sum.Stats.Created,
		"skipped", sum.Stats.Skipped,
		"failed", sum.Stats.Failed,
		"duration", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond),
	}
	if sum.Err != nil {
		n.logger.Error("run failed", append(args, "error", sum.Err)...)
		return nil
	}
	n.logger.Info("run complete", args...)
	return nil
}
