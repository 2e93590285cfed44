// Package pipeline provides the high-level orchestration of the three deal
// pipelines: signed vendor lookup, page scrape and manual entry.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/deal-poster/internal/fetch"
	"github.com/jonathan/deal-poster/internal/notify"
	"github.com/jonathan/deal-poster/internal/observability"
	"github.com/jonathan/deal-poster/internal/pipeline/steps"
	"github.com/jonathan/deal-poster/internal/post"
	"github.com/jonathan/deal-poster/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Pipeline string `json:"pipeline"`
	Step     string `json:"step"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// PostWriter stores a rendered post and returns its path.
type PostWriter interface {
	Write(p post.Post) (string, error)
}

// Notifier announces a written post.
type Notifier interface {
	Send(ctx context.Context, m notify.Message) error
}

// RunOptions holds the collaborators shared by every pipeline.
type RunOptions struct {
	Writer PostWriter
	// Notifier nil disables the notify step.
	Notifier Notifier
	// Now is the clock for post timestamps; nil means time.Now.
	Now func() time.Time
	// Printer receives verbose summaries; nil disables them.
	Printer    *observability.Printer
	OnProgress ProgressCallback
}

// Result describes a completed run.
type Result struct {
	Path    string
	Product *types.ProductRecord
	URL     string
	// Fetch is set by the scrape pipeline.
	Fetch    *fetch.Result
	Notified bool
}

type run struct {
	category  string
	opts      *RunOptions
	completed map[string]bool
}

func newRun(category string, opts *RunOptions) *run {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &run{category: category, opts: opts, completed: map[string]bool{}}
}

// step emits progress for name, checks its dependencies have completed and
// marks it done once fn succeeds. A failing optional step is logged and
// left incomplete.
func (r *run) step(name, message string, fn func() error) error {
	if err := steps.ValidateDependencies(r.category, name, r.completed); err != nil {
		return err
	}
	if r.opts.OnProgress != nil {
		i, n := steps.Position(r.category, name)
		r.opts.OnProgress(ProgressEvent{Pipeline: r.category, Step: name, Index: i, Total: n, Message: message})
	}
	if err := fn(); err != nil {
		if steps.IsOptional(r.category, name) {
			log.Warn().Err(err).Str("pipeline", r.category).Str("step", name).Msg("optional step failed; continuing")
			return nil
		}
		return err
	}
	r.completed[name] = true
	return nil
}

func (r *run) write(prod *types.ProductRecord, url, sourceURL, note string) (string, error) {
	var path string
	err := r.step("write_post", "Writing post...", func() error {
		var err error
		path, err = r.opts.Writer.Write(post.Post{
			Product:     prod,
			URL:         url,
			SourceURL:   sourceURL,
			Note:        note,
			PublishedAt: r.opts.Now(),
		})
		return err
	})
	return path, err
}

// notify reports whether the message was sent. The step is optional, so a
// failed send never fails the run.
func (r *run) notify(ctx context.Context, prod *types.ProductRecord, url, note string) bool {
	if r.opts.Notifier == nil {
		log.Debug().Msg("notifier not configured; skipping")
		return false
	}
	err := r.step("notify", "Sending notification...", func() error {
		return r.opts.Notifier.Send(ctx, notify.Message{Product: prod, URL: url, Note: note})
	})
	if err != nil {
		log.Warn().Err(err).Msg("notification skipped")
		return false
	}
	return r.completed["notify"]
}
