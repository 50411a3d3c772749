// Package scheduler drives the distribution engine: a periodic tick lists
// the active templates and processes each one through backfill, assignment
// resolution, and materialization. Templates are independent units of work
// and run concurrently; overlap between ticks is harmless because the task
// store's idempotency key is the correctness guarantee, not mutual
// exclusion.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ccnuzw/task-dispatch/internal/models"
	"github.com/ccnuzw/task-dispatch/internal/repository"
	"github.com/ccnuzw/task-dispatch/internal/services"
)

type Scheduler struct {
	templateRepo    repository.TemplateRepository
	dist            *services.DistributionService
	tickSpec        string
	tick            cron.Schedule
	workers         int
	templateTimeout time.Duration
	stop            chan struct{}
}

// New creates a scheduler. tickSpec is a standard cron expression or a
// descriptor such as "@every 5m".
func New(
	templateRepo repository.TemplateRepository,
	dist *services.DistributionService,
	tickSpec string,
	workers int,
	templateTimeout time.Duration,
) (*Scheduler, error) {
	tick, err := cron.ParseStandard(tickSpec)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	return &Scheduler{
		templateRepo:    templateRepo,
		dist:            dist,
		tickSpec:        tickSpec,
		tick:            tick,
		workers:         workers,
		templateTimeout: templateTimeout,
		stop:            make(chan struct{}),
	}, nil
}

// Start blocks, firing a tick on the configured cadence until the context
// is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().
		Str("tick", s.tickSpec).
		Int("workers", s.workers).
		Msg("template scheduler started")

	for {
		now := time.Now()
		timer := time.NewTimer(s.tick.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case tickAt := <-timer.C:
			s.RunTick(ctx, tickAt)
		}
	}
}

// Stop terminates the tick loop. An in-flight tick finishes its templates.
func (s *Scheduler) Stop() {
	close(s.stop)
}

// RunTick processes every active template once, fanning out over the
// worker pool. A failing template is logged and retried on the next tick;
// it never aborts the others.
func (s *Scheduler) RunTick(ctx context.Context, now time.Time) {
	logger := log.With().Str("run_id", uuid.NewString()).Logger()

	templates, err := s.templateRepo.ListActive(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list active templates")
		return
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := range templates {
		select {
		case <-ctx.Done():
			// Abort between templates; in-flight ones run to completion.
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		tpl := templates[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.processTemplate(ctx, logger, &tpl, now)
		}()
	}
	wg.Wait()

	logger.Info().Int("templates", len(templates)).Msg("tick completed")
}

func (s *Scheduler) processTemplate(ctx context.Context, logger zerolog.Logger, tpl *models.TaskTemplate, now time.Time) {
	tctx := ctx
	if s.templateTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, s.templateTimeout)
		defer cancel()
	}

	summary, err := s.dist.RunTemplate(tctx, tpl, now)
	if err != nil {
		// Bookkeeping was not advanced past the failure, so the next
		// tick retries this template from the same point.
		logger.Error().Err(err).Uint64("template_id", tpl.ID).Msg("template tick failed")
		return
	}

	if summary.Occurrences > 0 {
		logger.Info().
			Uint64("template_id", tpl.ID).
			Int("occurrences", summary.Occurrences).
			Int("created", summary.Created).
			Int("skipped", summary.Skipped).
			Msg("template distributed")
	}
}
