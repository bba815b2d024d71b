package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/metrics"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/Mel762/telegramTarorApp/internal/usecases/texts"
	"github.com/google/uuid"
)

// Service движок квот: решение и списание выполняются под блокировкой строки пользователя
type Service struct {
	UserRepo    repository.IUserRepo
	ReadingRepo repository.IReadingRepo
	Log         *slog.Logger
}

func New(userRepo repository.IUserRepo, readingRepo repository.IReadingRepo, log *slog.Logger) *Service {
	return &Service{
		UserRepo:    userRepo,
		ReadingRepo: readingRepo,
		Log:         log,
	}
}

// Check блокирует пользователя, сбрасывает счётчики при новом дне и принимает решение.
// Сброс сохраняется даже при отказе.
func (s *Service) Check(ctx context.Context, telegramID string, spread domain.SpreadType, now time.Time) (*domain.User, domain.Decision, error) {
	var (
		user     domain.User
		decision domain.Decision
	)

	err := s.UserRepo.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		locked, err := s.UserRepo.GetByTelegramIDForUpdateTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		user, decision, err = s.decideLocked(ctx, tx, locked, spread, now)
		return err
	})
	if err != nil {
		return nil, domain.Decision{}, err
	}

	s.observe(decision)
	return &user, decision, nil
}

// Commit повторно проверяет квоту, сохраняет расклад и списывает единицу в одной транзакции
func (s *Service) Commit(ctx context.Context, reading *domain.Reading, now time.Time) (*domain.User, error) {
	var user *domain.User
	err := s.UserRepo.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		var err error
		user, err = s.CommitTx(ctx, tx, reading, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CommitTx то же, что Commit, внутри внешней транзакции.
// Если квоту успел израсходовать параллельный запрос, возвращает QuotaDeniedError и ничего не пишет.
func (s *Service) CommitTx(ctx context.Context, tx persistence.Transaction, reading *domain.Reading, now time.Time) (*domain.User, error) {
	locked, err := s.UserRepo.GetByIDForUpdateTx(ctx, tx, reading.UserID)
	if err != nil {
		return nil, err
	}

	user, decision, err := s.decideLocked(ctx, tx, locked, reading.SpreadType, now)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		s.Log.Warn("quota exhausted while reading was generated",
			"user_id", user.ID,
			"spread_type", reading.SpreadType,
			"reason", decision.Reason)
		return nil, s.Denial(&user, decision)
	}

	if err := s.ReadingRepo.CreateTx(ctx, tx, reading); err != nil {
		return nil, err
	}

	consumed := domain.RecordConsumption(user, decision, now)
	if err := s.UserRepo.UpdateQuotaTx(ctx, tx, &consumed); err != nil {
		return nil, err
	}

	s.Log.Debug("quota consumed",
		"user_id", consumed.ID,
		"spread_type", reading.SpreadType,
		"source", decision.Source)
	return &consumed, nil
}

// CheckChatTurn лимит реплик чата по истории, без обращения к хранилищу
func (s *Service) CheckChatTurn(user *domain.User, history []domain.ChatTurn) domain.Decision {
	return domain.DecideChatTurn(user.Tier, history)
}

// Denial локализованный отказ для клиента
func (s *Service) Denial(user *domain.User, decision domain.Decision) *domain.QuotaDeniedError {
	return &domain.QuotaDeniedError{
		Kind:    decision.Reason.Kind(),
		Reason:  decision.Reason,
		Message: texts.DenialReason(decision.Reason, user.Tier, user.Lang()),
	}
}

func (s *Service) decideLocked(ctx context.Context, tx persistence.Transaction, locked *domain.User, spread domain.SpreadType, now time.Time) (domain.User, domain.Decision, error) {
	user, reset := domain.ResetIfNewDay(*locked, now)
	if reset {
		if err := s.UserRepo.UpdateQuotaTx(ctx, tx, &user); err != nil {
			return user, domain.Decision{}, fmt.Errorf("failed to persist daily reset: %w", err)
		}
		s.Log.Debug("daily counters reset", "user_id", user.ID)
	}

	facts, err := s.facts(ctx, tx, user.ID, spread, now)
	if err != nil {
		return user, domain.Decision{}, err
	}
	return user, domain.Decide(user, spread, facts), nil
}

// facts подсчёт по таблице readings только там, где он влияет на решение
func (s *Service) facts(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType, now time.Time) (domain.QuotaFacts, error) {
	var facts domain.QuotaFacts
	switch spread {
	case domain.SpreadDay:
		dayStart, dayEnd := domain.DayBounds(now)
		count, err := s.ReadingRepo.CountByTypeBetweenTx(ctx, tx, userID, domain.SpreadDay, dayStart, dayEnd)
		if err != nil {
			return facts, err
		}
		facts.DayReadingsToday = count
	case domain.SpreadThree:
		count, err := s.ReadingRepo.CountByTypeTx(ctx, tx, userID, domain.SpreadThree)
		if err != nil {
			return facts, err
		}
		facts.ThreeReadingsAllTime = count
	}
	return facts, nil
}

func (s *Service) observe(d domain.Decision) {
	metrics.QuotaDecisionsTotal.WithLabelValues(string(d.Spread), string(d.Source), string(d.Reason)).Inc()
}
