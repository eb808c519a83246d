package kie

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/metrics"
)

// Task is the poller's private view of one upstream job.
type Task struct {
	Model     string
	Family    Family
	ID        string
	State     TaskState
	URLs      []string
	CreatedAt time.Time
}

// FetchFunc issues the family status GET for path and returns the raw body.
// Any error is treated as transient by the poller.
type FetchFunc func(ctx context.Context, path string) ([]byte, error)

// SleepFunc waits between attempts.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poller drives a created task to a terminal state within its family budget.
// There is no way to abort a poll from outside besides the context, which
// request handlers detach from client disconnects.
type Poller struct {
	fetch    FetchFunc
	sleep    SleepFunc
	policies map[Family]PollPolicy
	logger   *infra.Logger
	metrics  *metrics.Collector
}

// NewPoller builds a poller. Nil sleep uses a timer; policies override the
// adapter defaults per family.
func NewPoller(fetch FetchFunc, sleep SleepFunc, policies map[Family]PollPolicy, logger *infra.Logger, m *metrics.Collector) *Poller {
	if sleep == nil {
		sleep = timerSleep
	}
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Poller{fetch: fetch, sleep: sleep, policies: policies, logger: logger, metrics: m}
}

func timerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Poller) policyFor(a Adapter) PollPolicy {
	if pol, ok := p.policies[a.Family()]; ok && pol.MaxAttempts > 0 {
		return pol
	}
	return a.Policy()
}

// Poll returns the result URLs of a finished task. The slice may be empty.
// Exactly MaxAttempts status requests are made before giving up.
func (p *Poller) Poll(ctx context.Context, a Adapter, model, taskID string) ([]string, error) {
	task := &Task{Model: model, Family: a.Family(), ID: taskID, State: StatePending, CreatedAt: time.Now()}
	policy := p.policyFor(a)
	log := p.logger.With().Str("model", model).Str("family", string(task.Family)).Str("task_id", taskID).Logger()

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, policy.Interval); err != nil {
				return nil, fmt.Errorf("kie: poll %s: %w", taskID, err)
			}
		}
		p.metrics.IncPollAttempt(string(task.Family))

		body, err := p.fetch(ctx, a.StatusPath(taskID))
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("status request failed, retrying")
			continue
		}
		status, err := a.ParseStatus(body)
		if err != nil {
			if !errors.Is(err, domain.ErrProviderTransient) {
				return nil, err
			}
			log.Debug().Err(err).Int("attempt", attempt).Msg("unparseable status, retrying")
			continue
		}

		task.State = status.State
		switch status.State {
		case StateSuccess:
			task.URLs = status.URLs
			if task.URLs == nil {
				task.URLs = []string{}
			}
			log.Info().Int("attempt", attempt).Int("urls", len(task.URLs)).Dur("elapsed", time.Since(task.CreatedAt)).Msg("task succeeded")
			return task.URLs, nil
		case StateFail:
			log.Warn().Int("attempt", attempt).Str("reason", status.FailureReason).Msg("task failed")
			return nil, &domain.TaskError{Kind: domain.ErrTaskFailed, Model: model, TaskID: taskID, Message: status.FailureReason}
		}
	}

	log.Warn().Int("attempts", policy.MaxAttempts).Msg("task timed out")
	return nil, fmt.Errorf("kie: %s task %s after %d attempts: %w", model, taskID, policy.MaxAttempts, domain.ErrTimeout)
}
