package usecase

import (
	"context"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/google/uuid"
)

// ReadingRequest запрос расклада от Mini-App
type ReadingRequest struct {
	TelegramID string
	Username   *string
	FirstName  *string
	Lang       domain.Language
	Question   string
	SpreadType domain.SpreadType
	Cards      domain.CardSet
}

// ReadingResult результат: текст или отказ по квоте
type ReadingResult struct {
	ReadingID    string
	Reading      string
	LimitReached bool
	Reason       string
	DenialKind   domain.DenialKind
	Degraded     bool // сгенерировать не удалось, вместо текста fallback
}

// ChatRequest очередная реплика в чате по раскладу
type ChatRequest struct {
	TelegramID string
	History    []domain.ChatTurn
	NewMessage string
	Context    domain.ReadingContext
}

// ChatResult ответ чата или отказ по лимиту
type ChatResult struct {
	Response     string
	LimitReached bool
	Degraded     bool
}

// ITarotUseCase оркестратор раскладов и чата
type ITarotUseCase interface {
	RequestReading(ctx context.Context, req ReadingRequest) (*ReadingResult, error)
	ContinueChat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	// ListReadings история раскладов пользователя, новые первыми
	ListReadings(ctx context.Context, telegramID string, limit int) ([]*domain.Reading, error)
	GetReading(ctx context.Context, telegramID string, readingID uuid.UUID) (*domain.Reading, error)
}

// IUserUseCase операции с профилем пользователя
type IUserUseCase interface {
	GetOrCreate(ctx context.Context, telegramID string, username, firstName *string, lang domain.Language) (*domain.User, error)
	UpdateSettings(ctx context.Context, telegramID string, settings domain.NotificationSettings) error
	UpgradeTier(ctx context.Context, telegramID string, tier domain.Tier) error
}

// IBotUseCase команды бота
type IBotUseCase interface {
	HandleStart(ctx context.Context, from *domain.TelegramUser, chatID int64) error
}
