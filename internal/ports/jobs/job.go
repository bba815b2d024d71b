package jobs

import (
	"context"
	"time"
)

// Job представляет периодическую задачу, которую можно запланировать
type Job interface {
	Name() string
	NextRun(now time.Time) time.Time
	Run(ctx context.Context) error
}

// RetryPolicy задача может задать свои паузы между повторами; пустой список = без повторов
type RetryPolicy interface {
	RetryDelays() []time.Duration
}
