package tarot

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ListReadings последние расклады пользователя
func (s *Service) ListReadings(ctx context.Context, telegramID string, limit int) ([]*domain.Reading, error) {
	if strings.TrimSpace(telegramID) == "" {
		return nil, domain.ErrEmptyExternalID
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	readings, err := s.ReadingRepo.ListByUser(ctx, user.ID, limit)
	if err != nil {
		return nil, err
	}
	return readings, nil
}

// GetReading расклад по ID; чужой расклад не отличается от несуществующего
func (s *Service) GetReading(ctx context.Context, telegramID string, readingID uuid.UUID) (*domain.Reading, error) {
	if strings.TrimSpace(telegramID) == "" {
		return nil, domain.ErrEmptyExternalID
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	reading, err := s.ReadingRepo.GetByID(ctx, readingID)
	if err != nil {
		return nil, err
	}
	if reading.UserID != user.ID {
		s.Log.Warn("reading requested by another user",
			"reading_id", readingID,
			"user_id", user.ID)
		return nil, fmt.Errorf("%w: %s", domain.ErrReadingNotFound, readingID)
	}
	return reading, nil
}
