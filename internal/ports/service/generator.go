package service

import (
	"context"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// ReadingPrompt контекст для генерации интерпретации расклада
type ReadingPrompt struct {
	Cards      domain.CardSet
	SpreadType domain.SpreadType
	Question   string
	Lang       domain.Language
}

// ChatPrompt контекст для продолжения чата по раскладу
type ChatPrompt struct {
	Reading    domain.ReadingContext
	History    []domain.ChatTurn
	NewMessage string
}

// IReadingGenerator внешний генератор текста (языковая модель)
type IReadingGenerator interface {
	GenerateReading(ctx context.Context, prompt ReadingPrompt) (string, error)
	ContinueChat(ctx context.Context, prompt ChatPrompt) (string, error)
}
