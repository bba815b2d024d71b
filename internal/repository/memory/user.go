package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/google/uuid"
)

type UserRepo struct {
	s *Store
}

func (r *UserRepo) CreateIfNotExists(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.findByTelegramID(user.TelegramID); ok {
		return &existing, nil
	}
	r.s.users[user.ID] = *user
	created := *user
	return &created, nil
}

func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.findByTelegramID(telegramID)
	if !ok {
		return nil, fmt.Errorf("%w: telegram_id=%s", domain.ErrUserNotFound, telegramID)
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user_id=%s", domain.ErrUserNotFound, id)
	}
	return &u, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	return r.update(user.ID, func(u *domain.User) {
		u.Username = user.Username
		u.FirstName = user.FirstName
		u.LanguageCode = user.LanguageCode
		u.UpdatedAt = r.s.Now()
	})
}

func (r *UserRepo) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	return r.update(userID, func(u *domain.User) {
		now := r.s.Now()
		u.LastSeenAt = &now
	})
}

func (r *UserRepo) UpdateSettings(ctx context.Context, telegramID string, settings domain.NotificationSettings) error {
	return r.updateByTelegramID(telegramID, func(u *domain.User) {
		u.NotificationsEnabled = settings.NotificationsEnabled
		u.NotificationTime = settings.NotificationTime
		u.ReceiveDailyReading = settings.ReceiveDailyReading
		u.UpdatedAt = r.s.Now()
	})
}

func (r *UserRepo) UpdateTier(ctx context.Context, telegramID string, tier domain.Tier) error {
	return r.updateByTelegramID(telegramID, func(u *domain.User) {
		u.Tier = tier
		u.UpdatedAt = r.s.Now()
	})
}

// ListDueForNotification те же условия, что и SQL-запрос postgres-репозитория
func (r *UserRepo) ListDueForNotification(ctx context.Context, clock string, dayStart, dayEnd time.Time) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inDay := func(t time.Time) bool {
		return !t.Before(dayStart) && t.Before(dayEnd)
	}

	var due []*domain.User
	for _, u := range r.s.users {
		if !u.NotificationsEnabled || u.NotificationTime > clock {
			continue
		}

		skip := false
		for _, rd := range r.s.readings {
			if rd.UserID == u.ID && rd.SpreadType == domain.SpreadDay && inDay(rd.CreatedAt) {
				skip = true
				break
			}
		}
		for _, h := range r.s.history {
			if skip {
				break
			}
			if h.UserID == u.ID && inDay(h.CreatedAt) {
				skip = true
			}
		}
		if skip {
			continue
		}

		user := u
		due = append(due, &user)
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].NotificationTime < due[j].NotificationTime
	})
	return due, nil
}

func (r *UserRepo) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return r.s.withTransaction(ctx, fn)
}

func (r *UserRepo) GetByTelegramIDForUpdateTx(ctx context.Context, tx persistence.Transaction, telegramID string) (*domain.User, error) {
	return r.GetByTelegramID(ctx, telegramID)
}

func (r *UserRepo) GetByIDForUpdateTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *UserRepo) UpdateQuotaTx(ctx context.Context, tx persistence.Transaction, user *domain.User) error {
	if r.s.FailQuotaUpdate != nil {
		return fmt.Errorf("failed to update user quota: %w", r.s.FailQuotaUpdate)
	}
	return r.update(user.ID, func(u *domain.User) {
		u.DailyOneCardCount = user.DailyOneCardCount
		u.DailyThreeCardCount = user.DailyThreeCardCount
		u.LastReadingDate = user.LastReadingDate
		u.LastDailyReadingDate = user.LastDailyReadingDate
		u.FreeReadingsOne = user.FreeReadingsOne
		u.FreeReadingsThree = user.FreeReadingsThree
		u.UpdatedAt = r.s.Now()
	})
}

func (r *UserRepo) AddCreditsTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType, amount int) error {
	if !spread.IsPurchasable() {
		return fmt.Errorf("%w: %s", domain.ErrSpreadNotPurchasable, spread)
	}
	return r.update(userID, func(u *domain.User) {
		if spread == domain.SpreadOne {
			u.FreeReadingsOne += amount
		} else {
			u.FreeReadingsThree += amount
		}
		u.UpdatedAt = r.s.Now()
	})
}

func (r *UserRepo) update(id uuid.UUID, apply func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("%w: user_id=%s", domain.ErrUserNotFound, id)
	}
	apply(&u)
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) updateByTelegramID(telegramID string, apply func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.findByTelegramID(telegramID)
	if !ok {
		return fmt.Errorf("%w: telegram_id=%s", domain.ErrUserNotFound, telegramID)
	}
	apply(&u)
	r.s.users[u.ID] = u
	return nil
}
