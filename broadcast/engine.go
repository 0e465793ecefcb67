// Package broadcast fans announcements out to resolved targets, one
// send at a time, and reports what happened to each of them.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"announcebot/core/logger"
)

// MediaKind names the supported attachment types.
type MediaKind string

const (
	// MediaPhoto is a photo attachment.
	MediaPhoto MediaKind = "photo"
	// MediaVideo is a video attachment.
	MediaVideo MediaKind = "video"
	// MediaDocument is a document attachment.
	MediaDocument MediaKind = "document"
	// MediaAudio is an audio attachment.
	MediaAudio MediaKind = "audio"
)

// Media references an uploaded Telegram file by its file ID.
type Media struct {
	Kind    MediaKind
	FileID  string
	Caption string
}

// Payload is the message delivered to every target: either formatted
// HTML text or a single media item with caption.
type Payload struct {
	Text  string
	Media *Media
}

// Transport delivers one payload to one chat. threadID overrides the
// target's stored topic; nil sends to General.
type Transport interface {
	Send(ctx context.Context, t Target, p Payload, threadID *int) error
}

// ThreadClearer persists a reset topic when a stored one turns stale.
type ThreadClearer interface {
	SetThreadID(id int64, threadID *int) error
}

// Progress is handed to the progress callback during a run.
type Progress struct {
	Done    int
	Total   int
	Sent    int
	Failed  int
	Blocked int
}

// Report summarises a finished (or cancelled) run.
type Report struct {
	Total     int
	Sent      int
	Failed    int
	Blocked   int
	Elapsed   time.Duration
	Errors    []string
	Cancelled bool
}

// Options configure an Engine.
type Options struct {
	Transport Transport
	// Groups is consulted to clear stale topic IDs; optional.
	Groups ThreadClearer
	// UserDelay is the pause between consecutive user-targeted sends.
	UserDelay time.Duration
	// ProgressEvery controls how often the progress callback fires.
	ProgressEvery int
}

// Engine walks a target list sequentially. It keeps no run history.
type Engine struct {
	transport     Transport
	groups        ThreadClearer
	userDelay     time.Duration
	progressEvery int
	sleep         func(time.Duration)
}

// NewEngine builds an Engine from options, applying defaults.
func NewEngine(opts Options) *Engine {
	every := opts.ProgressEvery
	if every <= 0 {
		every = 5
	}
	delay := opts.UserDelay
	if delay < 0 {
		delay = 0
	}
	return &Engine{
		transport:     opts.Transport,
		groups:        opts.Groups,
		userDelay:     delay,
		progressEvery: every,
		sleep:         time.Sleep,
	}
}

// Run delivers payload to every target in order. One target's failure
// never aborts the rest; cancellation stops between targets and the
// partial totals are reported.
func (e *Engine) Run(ctx context.Context, targets []Target, payload Payload, progress func(Progress)) Report {
	start := time.Now()
	report := Report{Total: len(targets)}

	for i, target := range targets {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		err := e.deliver(ctx, target, payload)
		switch {
		case err == nil:
			report.Sent++
		case target.Kind == TargetUser && isBlocked(err):
			report.Blocked++
			logger.Debug(ctx, "broadcast", "send.blocked",
				slog.Int64("user_id", target.ID),
			)
		default:
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s (%d): %s", target.Label, target.ID, err.Error()))
			logger.Warn(ctx, "broadcast", "send.fail",
				slog.String("status", "fail"),
				slog.Int64("chat_id", target.ID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}

		done := i + 1
		if progress != nil && (done%e.progressEvery == 0 || done == len(targets)) {
			progress(Progress{
				Done:    done,
				Total:   len(targets),
				Sent:    report.Sent,
				Failed:  report.Failed,
				Blocked: report.Blocked,
			})
		}

		if target.Kind == TargetUser && e.userDelay > 0 && done < len(targets) {
			e.sleep(e.userDelay)
		}
	}

	report.Elapsed = time.Since(start)
	logger.Info(ctx, "broadcast", "run.done",
		slog.Int("targets", report.Total),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Int("blocked", report.Blocked),
		slog.Duration("duration", logger.RoundMS(report.Elapsed)),
	)
	return report
}

// deliver sends with the target's stored topic and falls back once to
// General when the topic turned stale, clearing the stored ID so later
// runs skip the dead topic.
func (e *Engine) deliver(ctx context.Context, target Target, payload Payload) error {
	err := e.transport.Send(ctx, target, payload, target.ThreadID)
	if err == nil {
		return nil
	}
	if target.Kind != TargetGroup || target.ThreadID == nil || !isStaleThread(err) {
		return err
	}

	if e.groups != nil {
		if clearErr := e.groups.SetThreadID(target.ID, nil); clearErr != nil {
			logger.Warn(ctx, "broadcast", "thread.clear_failed",
				slog.Int64("group_id", target.ID),
				slog.String("err", clearErr.Error()),
			)
		}
	}
	logger.Info(ctx, "broadcast", "thread.stale",
		slog.String("status", "retry"),
		slog.Int64("group_id", target.ID),
		slog.Int("thread_id", *target.ThreadID),
	)
	return e.transport.Send(ctx, target, payload, nil)
}
