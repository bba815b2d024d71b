package jobs

import (
	"context"
	"log/slog"
	"time"
)

const (
	paymentExpirerName = "payment-expirer"
	// PaymentExpirerSpec каждый час в :00
	PaymentExpirerSpec = "0 * * * *"
)

type pendingExpirer interface {
	ExpirePending(ctx context.Context) (int64, error)
}

// PaymentExpirer помечает failed платежи, по которым так и не пришёл successful_payment
type PaymentExpirer struct {
	payments pendingExpirer
	schedule cronSchedule
	log      *slog.Logger
}

func NewPaymentExpirer(payments pendingExpirer, log *slog.Logger) *PaymentExpirer {
	schedule, _ := parseSchedule(PaymentExpirerSpec)
	return &PaymentExpirer{
		payments: payments,
		schedule: schedule,
		log:      log,
	}
}

func (j *PaymentExpirer) Name() string {
	return paymentExpirerName
}

func (j *PaymentExpirer) NextRun(now time.Time) time.Time {
	return j.schedule.next(now)
}

func (j *PaymentExpirer) Run(ctx context.Context) error {
	expired, err := j.payments.ExpirePending(ctx)
	if err != nil {
		return err
	}
	j.log.Debug("pending payments checked", "expired", expired)
	return nil
}
