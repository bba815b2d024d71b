package tarot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/metrics"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/Mel762/telegramTarorApp/internal/ports/usecase"
	"github.com/Mel762/telegramTarorApp/internal/usecases/texts"
)

// RequestReading квота → генерация → сохранение расклада и списание
func (s *Service) RequestReading(ctx context.Context, req usecase.ReadingRequest) (*usecase.ReadingResult, error) {
	if strings.TrimSpace(req.TelegramID) == "" {
		return nil, domain.ErrEmptyExternalID
	}
	if !req.SpreadType.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSpreadType, req.SpreadType)
	}
	if len(req.Cards) == 0 {
		return nil, domain.ErrNoCards
	}

	if _, err := s.GetOrCreate(ctx, req.TelegramID, req.Username, req.FirstName, req.Lang); err != nil {
		return nil, err
	}

	now := s.Now()
	user, decision, err := s.Quota.Check(ctx, req.TelegramID, req.SpreadType, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check quota: %w", err)
	}

	if !decision.Allow {
		denial := s.Quota.Denial(user, decision)
		metrics.ReadingsTotal.WithLabelValues(string(req.SpreadType), "denied").Inc()
		s.Log.Info("reading denied by quota",
			"user_id", user.ID,
			"spread_type", req.SpreadType,
			"reason", decision.Reason)
		return deniedResult(denial), nil
	}

	lang := user.Lang()
	text, err := s.generate(ctx, "reading", func(ctx context.Context) (string, error) {
		return s.Generator.GenerateReading(ctx, service.ReadingPrompt{
			Cards:      req.Cards,
			SpreadType: req.SpreadType,
			Question:   req.Question,
			Lang:       lang,
		})
	})
	if err != nil {
		// квота не списывается за контент, который не был получен
		metrics.ReadingsTotal.WithLabelValues(string(req.SpreadType), "degraded").Inc()
		s.Log.Warn("reading generation failed, returning fallback",
			"error", err,
			"user_id", user.ID,
			"spread_type", req.SpreadType)
		return &usecase.ReadingResult{Reading: texts.Fallback(lang), Degraded: true}, nil
	}

	reading := domain.NewReading(user.ID, req.SpreadType, req.Cards, req.Question, text, now)
	if _, err := s.Quota.Commit(ctx, reading, now); err != nil {
		if denial, ok := domain.AsQuotaDenied(err); ok {
			metrics.ReadingsTotal.WithLabelValues(string(req.SpreadType), "denied").Inc()
			return deniedResult(denial), nil
		}

		// текст уже сгенерирован, пользователь получает его даже без записи
		perr := &domain.PersistenceError{Op: "commit_reading", Err: err}
		metrics.ReadingsTotal.WithLabelValues(string(req.SpreadType), "unsaved").Inc()
		s.Log.Error("failed to persist reading after generation",
			"error", perr,
			"user_id", user.ID,
			"spread_type", req.SpreadType)
		s.alert(ctx, fmt.Sprintf("reading not persisted: user_id=%s spread=%s: %v", user.ID, req.SpreadType, err))
		return &usecase.ReadingResult{Reading: text}, nil
	}

	metrics.ReadingsTotal.WithLabelValues(string(req.SpreadType), "ok").Inc()
	s.publish(ctx, domain.NewEvent(domain.EventReadingCreated, user, map[string]string{
		"reading_id":  reading.ID.String(),
		"spread_type": string(req.SpreadType),
		"source":      string(decision.Source),
	}, now))

	s.Log.Info("reading created",
		"user_id", user.ID,
		"reading_id", reading.ID,
		"spread_type", req.SpreadType,
		"source", decision.Source)

	return &usecase.ReadingResult{ReadingID: reading.ID.String(), Reading: text}, nil
}

// ContinueChat лимит реплик → генерация ответа в контексте расклада
func (s *Service) ContinueChat(ctx context.Context, req usecase.ChatRequest) (*usecase.ChatResult, error) {
	if strings.TrimSpace(req.TelegramID) == "" {
		return nil, domain.ErrEmptyExternalID
	}
	if strings.TrimSpace(req.NewMessage) == "" {
		return nil, domain.ErrEmptyMessage
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}

	decision := s.Quota.CheckChatTurn(user, req.History)
	if !decision.Allow {
		metrics.ChatTurnsTotal.WithLabelValues("limit").Inc()
		s.Log.Info("chat turn denied",
			"user_id", user.ID,
			"tier", user.Tier,
			"turns", domain.CountUserTurns(req.History))
		return &usecase.ChatResult{
			Response:     s.Quota.Denial(user, decision).Message,
			LimitReached: true,
		}, nil
	}

	readingCtx := req.Context
	if readingCtx.Lang == "" {
		readingCtx.Lang = user.Lang()
	}

	text, err := s.generate(ctx, "chat", func(ctx context.Context) (string, error) {
		return s.Generator.ContinueChat(ctx, service.ChatPrompt{
			Reading:    readingCtx,
			History:    req.History,
			NewMessage: req.NewMessage,
		})
	})
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues("degraded").Inc()
		s.Log.Warn("chat generation failed, returning fallback",
			"error", err,
			"user_id", user.ID)
		return &usecase.ChatResult{Response: texts.Fallback(readingCtx.Lang), Degraded: true}, nil
	}

	metrics.ChatTurnsTotal.WithLabelValues("ok").Inc()
	return &usecase.ChatResult{Response: text}, nil
}

// generate один вызов генератора с ограничением по времени, без повторов
func (s *Service) generate(ctx context.Context, kind string, call func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.GenerationTimeout)
	defer cancel()

	started := time.Now()
	text, err := call(ctx)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		status := "error"
		if timeout {
			status = "timeout"
		}
		metrics.GenerationDuration.WithLabelValues(kind, status).Observe(time.Since(started).Seconds())
		return "", &domain.GenerationError{Err: err, Timeout: timeout}
	}

	metrics.GenerationDuration.WithLabelValues(kind, "ok").Observe(time.Since(started).Seconds())
	return Sanitize(text), nil
}

func deniedResult(denial *domain.QuotaDeniedError) *usecase.ReadingResult {
	return &usecase.ReadingResult{
		LimitReached: true,
		Reason:       denial.Message,
		DenialKind:   denial.Kind,
	}
}

func (s *Service) publish(ctx context.Context, event domain.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Log.Warn("failed to publish event",
			"error", err,
			"event_type", event.Type,
			"user_id", event.UserID)
	}
}

func (s *Service) alert(ctx context.Context, message string) {
	if s.AlerterService == nil {
		return
	}
	if err := s.AlerterService.SendAlert(ctx, message); err != nil {
		s.Log.Warn("failed to send alert", "error", err)
	}
}
