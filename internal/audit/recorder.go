// AngelaMos | 2026
// recorder.go

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sink receives audit entries after state-changing operations. Implementations
// must never fail the triggering request: Record has no error return.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// Recorder persists entries asynchronously. The write runs on its own
// goroutine with a detached context so a cancelled request cannot abort the
// record; insert failures are logged and dropped.
type Recorder struct {
	repo    Repository
	logger  *slog.Logger
	timeout time.Duration
}

func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:    repo,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

func (r *Recorder) Record(ctx context.Context, entry Entry) {
	entry.ID = uuid.New().String()

	detached := context.WithoutCancel(ctx)

	go func() {
		writeCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()

		if err := r.repo.Insert(writeCtx, &entry); err != nil {
			r.logger.Error("audit record failed",
				"action", entry.Action,
				"user_id", entry.UserID,
				"error", err,
			)
		}
	}()
}

// NopSink discards all entries.
type NopSink struct{}

func (NopSink) Record(context.Context, Entry) {}

var (
	_ Sink = (*Recorder)(nil)
	_ Sink = NopSink{}
)
