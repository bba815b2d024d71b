package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronSchedule расписание джобы в формате crontab (5 полей), время UTC
type cronSchedule struct {
	spec     string
	schedule cron.Schedule
}

func parseSchedule(spec string) (cronSchedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return cronSchedule{}, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return cronSchedule{spec: spec, schedule: schedule}, nil
}

func (s cronSchedule) next(now time.Time) time.Time {
	return s.schedule.Next(now.UTC())
}
