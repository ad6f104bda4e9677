// Package orchestrator runs translation jobs page by page. At most one job
// is active at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/document"
	"github.com/valpere/pagetran/internal/glossary"
	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/progress"
)

type FailurePolicy string

const (
	// FailAbort stops the job at the first failed page.
	FailAbort FailurePolicy = "abort"
	// FailSkip records the failed page with its error and moves on.
	FailSkip FailurePolicy = "skip"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(s); p {
	case FailAbort, FailSkip:
		return p, nil
	case "":
		return FailAbort, nil
	default:
		return "", apperrors.Validation("invalid failure policy %q: must be abort or skip", s)
	}
}

type ModelManager interface {
	EnsureResident(ctx context.Context, tier model.Tier) (model.Model, error)
}

type PageTranslator interface {
	Translate(ctx context.Context, mdl model.Model, page internal.Page, terms glossary.Terms) (internal.PageBody, error)
}

type GlossarySource interface {
	Snapshot(ctx context.Context) (glossary.Terms, error)
}

type Config struct {
	FailurePolicy FailurePolicy
	// PageTimeout bounds a single page translation. Zero means no limit.
	PageTimeout time.Duration
}

type Orchestrator struct {
	models     ModelManager
	translator PageTranslator
	glossary   GlossarySource
	config     Config
	progress   *progress.Publisher

	// mu serializes slot claims; readers go through job.
	mu  sync.Mutex
	job atomic.Pointer[Job]
}

func New(models ModelManager, translator PageTranslator, gloss GlossarySource, config Config) *Orchestrator {
	if config.FailurePolicy == "" {
		config.FailurePolicy = FailAbort
	}
	return &Orchestrator{
		models:     models,
		translator: translator,
		glossary:   gloss,
		config:     config,
		progress:   progress.NewPublisher(),
	}
}

// Start claims the job slot, snapshots the glossary and makes the tier's
// model resident before the page loop starts in the background. Model and
// glossary failures leave the job failed and are returned to the caller.
func (o *Orchestrator) Start(ctx context.Context, pages []internal.Page, tier model.Tier) (*Job, error) {
	pages, err := document.Normalize(pages)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if prev := o.job.Load(); prev != nil && prev.Status().Active() {
		o.mu.Unlock()
		return nil, apperrors.ErrJobAlreadyRunning
	}
	job := newJob(tier, len(pages))
	o.job.Store(job)
	o.progress.Publish(0, job.total)
	o.mu.Unlock()

	log := logger.With("job", job.id, "tier", tier)
	log.Info("Job started", "pages", job.total)

	terms, err := o.glossary.Snapshot(ctx)
	if err != nil {
		err = fmt.Errorf("failed to snapshot glossary: %w", err)
		log.Error("Job failed", "error", err)
		job.finish(StatusFailed, err)
		return nil, err
	}

	mdl, err := o.models.EnsureResident(ctx, tier)
	if err != nil {
		log.Error("Job failed", "error", err)
		job.finish(StatusFailed, err)
		return nil, err
	}

	go o.run(job, mdl, pages, terms)
	return job, nil
}

func (o *Orchestrator) run(job *Job, mdl model.Model, pages []internal.Page, terms glossary.Terms) {
	log := logger.With("job", job.id, "tier", job.tier, "model", mdl.ID())
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("translation loop panicked: %v", r)
			log.Error("Job failed", "error", err)
			job.finish(StatusFailed, err)
		}
	}()

	for _, page := range pages {
		if job.Status() == StatusCancelling {
			job.finish(StatusCancelled, nil)
			log.Info("Job cancelled", "completed_pages", job.current.Load())
			return
		}

		start := time.Now()
		body, err := o.translatePage(mdl, page, terms)
		if err != nil {
			if o.config.FailurePolicy != FailSkip {
				log.Error("Job failed", "page", page.Page, "error", err)
				job.finish(StatusFailed, err)
				return
			}
			log.Warn("Page skipped", "page", page.Page, "error", err)
			result := internal.NewTranslatedPage(page, internal.PageBody{})
			result.Error = apperrors.PublicMessage(err)
			job.append(result)
		} else {
			job.append(internal.NewTranslatedPage(page, body))
			log.Info("Page translated", "page", page.Page, "elapsed", time.Since(start).Round(time.Millisecond))
		}

		n := job.current.Add(1)
		o.progress.Publish(int(n), job.total)
	}

	// A cancel that arrives while the last page is in flight has nothing
	// left to stop.
	job.finish(StatusCompleted, nil)
	log.Info("Job completed", "pages", job.total)
}

// translatePage is not bound to the cancellation token: an in-flight page
// always finishes.
func (o *Orchestrator) translatePage(mdl model.Model, page internal.Page, terms glossary.Terms) (internal.PageBody, error) {
	ctx := context.Background()
	if o.config.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.PageTimeout)
		defer cancel()
	}

	body, err := o.translator.Translate(ctx, mdl, page, terms)
	if err != nil {
		var pe *apperrors.PageError
		if !errors.As(err, &pe) {
			err = &apperrors.PageError{Page: page.Page, Err: err}
		}
		return internal.PageBody{}, err
	}
	return body, nil
}

// Cancel requests cooperative cancellation of the running job. It reports
// whether a running job was moved to cancelling.
func (o *Orchestrator) Cancel() bool {
	job := o.job.Load()
	if job == nil {
		return false
	}
	if !job.status.CompareAndSwap(StatusRunning, StatusCancelling) {
		return false
	}
	logger.Info("Job cancellation requested", "job", job.id)
	return true
}

// Progress never blocks; it reports zeros before the first job.
func (o *Orchestrator) Progress() progress.Progress {
	return o.progress.Snapshot()
}

// Current returns a snapshot of the latest job, or an idle snapshot.
func (o *Orchestrator) Current() Snapshot {
	job := o.job.Load()
	if job == nil {
		return Snapshot{Status: StatusIdle, Results: []internal.TranslatedPage{}}
	}
	return job.Snapshot()
}

// Shutdown cancels the latest job and waits for its in-flight page to
// finish, so the resident model can be released safely afterwards.
func (o *Orchestrator) Shutdown(ctx context.Context) (Snapshot, error) {
	job := o.job.Load()
	if job == nil {
		return o.Current(), nil
	}
	o.Cancel()
	return o.Wait(ctx, job)
}

// Wait blocks until job reaches a terminal state or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, job *Job) (Snapshot, error) {
	select {
	case <-job.Done():
		return job.Snapshot(), nil
	case <-ctx.Done():
		return job.Snapshot(), ctx.Err()
	}
}
