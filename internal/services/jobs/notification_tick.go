package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/usecases/notifications"
)

const (
	notificationTickName = "notification-tick"
	// NotificationTickSpec каждую минуту
	NotificationTickSpec = "* * * * *"
)

type notificationTicker interface {
	Tick(ctx context.Context, now time.Time) (notifications.TickReport, error)
}

// NotificationTick джоба планировщика уведомлений
type NotificationTick struct {
	ticker   notificationTicker
	schedule cronSchedule
	log      *slog.Logger
}

func NewNotificationTick(ticker notificationTicker, spec string, log *slog.Logger) (*NotificationTick, error) {
	if spec == "" {
		spec = NotificationTickSpec
	}
	schedule, err := parseSchedule(spec)
	if err != nil {
		return nil, err
	}

	return &NotificationTick{
		ticker:   ticker,
		schedule: schedule,
		log:      log,
	}, nil
}

func (j *NotificationTick) Name() string {
	return notificationTickName
}

func (j *NotificationTick) NextRun(now time.Time) time.Time {
	return j.schedule.next(now)
}

// RetryDelays без повторов: следующий тик и есть повтор
func (j *NotificationTick) RetryDelays() []time.Duration {
	return nil
}

func (j *NotificationTick) Run(ctx context.Context) error {
	_, err := j.ticker.Tick(ctx, time.Now().UTC())
	return err
}
