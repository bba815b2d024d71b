package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/pkg/metrics"
	"github.com/Mel762/telegramTarorApp/internal/ports/jobs"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
)

// defaultRetryDelays повторы для джоб без собственной RetryPolicy | now + 1m + 10m + 30m
var defaultRetryDelays = []time.Duration{
	1 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
}

// Scheduler управляет запуском периодических джоб
type Scheduler struct {
	jobs           []jobs.Job
	alerterService service.IAlerterService
	log            *slog.Logger
	wg             sync.WaitGroup
}

// NewScheduler создаёт новый планировщик джоб
func NewScheduler(log *slog.Logger, alerterService service.IAlerterService) *Scheduler {
	return &Scheduler{
		jobs:           make([]jobs.Job, 0),
		alerterService: alerterService,
		log:            log,
	}
}

// Register регистрирует джобу в планировщике
func (s *Scheduler) Register(job jobs.Job) {
	s.jobs = append(s.jobs, job)
	s.log.Debug("job registered", "job_name", job.Name(), "total_jobs", len(s.jobs))
}

// Start запускает все зарегистрированные джобы и блокируется до отмены контекста
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.jobs) == 0 {
		s.log.Warn("no jobs registered, scheduler not started")
		return nil
	}

	s.log.Info("starting job scheduler", "jobs_count", len(s.jobs))

	for _, job := range s.jobs {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJob(ctx, job)
		}()
	}

	s.wg.Wait()
	s.log.Info("job scheduler stopped")
	return nil
}

// runJob запускает отдельную джобу в цикле
func (s *Scheduler) runJob(ctx context.Context, job jobs.Job) {
	jobName := job.Name()
	for {
		now := time.Now()
		timer := time.NewTimer(job.NextRun(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("job stopped by context", "job_name", jobName)
			return
		case <-timer.C:
			attemptErrors, err := s.executeJobWithRetry(ctx, job)
			if err != nil {
				metrics.JobsTotal.WithLabelValues(jobName, "failed").Inc()
				s.log.Error("job failed after all retries",
					"job_name", jobName,
					"error", err,
					"attempts", len(attemptErrors),
				)
				s.sendAlert(ctx, jobName, attemptErrors)
				continue
			}
			metrics.JobsTotal.WithLabelValues(jobName, "success").Inc()
			s.log.Debug("job executed successfully", "job_name", jobName)
		}
	}
}

// jobAttemptError представляет ошибку конкретной попытки выполнения джобы
type jobAttemptError struct {
	attempt int
	err     error
}

func retryDelays(job jobs.Job) []time.Duration {
	if policy, ok := job.(jobs.RetryPolicy); ok {
		return policy.RetryDelays()
	}
	return defaultRetryDelays
}

// executeJobWithRetry выполняет джобу с retry при ошибках
// Возвращает список ошибок попыток и финальную ошибку
func (s *Scheduler) executeJobWithRetry(ctx context.Context, job jobs.Job) ([]jobAttemptError, error) {
	jobName := job.Name()
	retries := retryDelays(job)

	var attemptErrors []jobAttemptError
	for attempt := 1; ; attempt++ {
		err := job.Run(ctx)
		if err == nil {
			return nil, nil
		}
		attemptErrors = append(attemptErrors, jobAttemptError{attempt: attempt, err: err})

		if attempt > len(retries) {
			break
		}
		s.log.Warn("job execution failed, will retry",
			"job_name", jobName,
			"attempt", attempt,
			"retries_remaining", len(retries)-attempt+1,
			"error", err,
		)

		timer := time.NewTimer(retries[attempt-1])
		select {
		case <-ctx.Done():
			timer.Stop()
			return attemptErrors, ctx.Err()
		case <-timer.C:
		}
	}

	return attemptErrors, fmt.Errorf("all retry attempts failed (total attempts: %d): %w",
		len(attemptErrors), attemptErrors[len(attemptErrors)-1].err)
}

// sendAlert алертит на финальную ошибку после ретраев
func (s *Scheduler) sendAlert(ctx context.Context, jobName string, attemptErrors []jobAttemptError) {
	if s.alerterService == nil || ctx.Err() != nil {
		return
	}

	var message strings.Builder
	message.WriteString("⚠️ Job failed, retries exhausted\n\n")
	message.WriteString(fmt.Sprintf("Job: %s\n\n", jobName))
	message.WriteString("Attempts:\n")
	for _, attemptErr := range attemptErrors {
		message.WriteString(fmt.Sprintf("%d: %s\n", attemptErr.attempt, attemptErr.err.Error()))
	}

	if alertErr := s.alerterService.SendAlert(ctx, message.String()); alertErr != nil {
		s.log.Warn("failed to send job failure alert",
			"job_name", jobName,
			"error", alertErr,
		)
	}
}
