package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/google/uuid"
)

type ReadingRepo struct {
	s *Store
}

func (r *ReadingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reading, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rd := range r.s.readings {
		if rd.ID == id {
			reading := rd
			return &reading, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrReadingNotFound, id)
}

func (r *ReadingRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Reading, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.Reading
	for _, rd := range r.s.readings {
		if rd.UserID == userID {
			reading := rd
			out = append(out, &reading)
		}
	}
	sortReadingsDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReadingRepo) CreateTx(ctx context.Context, tx persistence.Transaction, reading *domain.Reading) error {
	if r.s.FailReadingCreate != nil {
		return fmt.Errorf("failed to create reading: %w", r.s.FailReadingCreate)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.readings = append(r.s.readings, *reading)
	return nil
}

func (r *ReadingRepo) CountByTypeBetweenTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType, from, to time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, rd := range r.s.readings {
		if rd.UserID == userID && rd.SpreadType == spread && !rd.CreatedAt.Before(from) && rd.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *ReadingRepo) CountByTypeTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, rd := range r.s.readings {
		if rd.UserID == userID && rd.SpreadType == spread {
			count++
		}
	}
	return count, nil
}

type NotificationRepo struct {
	s *Store
}

func (r *NotificationRepo) Create(ctx context.Context, history *domain.NotificationHistory) error {
	return r.create(history)
}

func (r *NotificationRepo) CreateTx(ctx context.Context, tx persistence.Transaction, history *domain.NotificationHistory) error {
	return r.create(history)
}

func (r *NotificationRepo) ExistsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, h := range r.s.history {
		if h.UserID == userID && !h.CreatedAt.Before(from) && h.CreatedAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *NotificationRepo) create(history *domain.NotificationHistory) error {
	if r.s.FailNotificationCreate != nil {
		return fmt.Errorf("failed to create notification history: %w", r.s.FailNotificationCreate)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *history)
	return nil
}

type PaymentRepo struct {
	s *Store
}

func (r *PaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[payment.ID]; ok {
		return fmt.Errorf("payment %s already exists", payment.ID)
	}
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, id)
	}
	return &p, nil
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, succeededAt, failedAt *time.Time, errorMessage *string) error {
	return r.update(id, func(p *domain.Payment) {
		p.Status = status
		p.SucceededAt = succeededAt
		p.FailedAt = failedAt
		p.ErrorMessage = errorMessage
	})
}

func (r *PaymentRepo) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var expired int64
	now := r.s.Now()
	message := "invoice expired"
	for id, p := range r.s.payments {
		if p.Status != domain.PaymentStatusPending || !p.CreatedAt.Before(olderThan) {
			continue
		}
		p.Status = domain.PaymentStatusFailed
		p.FailedAt = &now
		p.ErrorMessage = &message
		r.s.payments[id] = p
		expired++
	}
	return expired, nil
}

func (r *PaymentRepo) GetByIDForUpdateTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *PaymentRepo) MarkSucceededTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID, providerID string, succeededAt time.Time) error {
	return r.update(id, func(p *domain.Payment) {
		p.Status = domain.PaymentStatusSucceeded
		p.ProviderID = providerID
		p.SucceededAt = &succeededAt
	})
}

func (r *PaymentRepo) update(id uuid.UUID, apply func(*domain.Payment)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, id)
	}
	apply(&p)
	r.s.payments[id] = p
	return nil
}
