package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Mel762/telegramTarorApp/internal/ports/service"
)

// Generator генератор без сети для разработки и тестов
type Generator struct {
	log *slog.Logger

	mu sync.Mutex

	// Настраиваемые ответы
	ReadingResponse string
	ReadingError    error
	ChatResponse    string
	ChatError       error
	// Block держит вызов до отмены ctx (проверка таймаута)
	Block bool

	// Счётчики вызовов
	ReadingCalls int
	ChatCalls    int
	LastReading  *service.ReadingPrompt
	LastChat     *service.ChatPrompt
}

var _ service.IReadingGenerator = (*Generator)(nil)

func New(log *slog.Logger) *Generator {
	return &Generator{log: log}
}

// GenerateReading заготовленный текст по картам расклада
func (g *Generator) GenerateReading(ctx context.Context, prompt service.ReadingPrompt) (string, error) {
	g.mu.Lock()
	g.ReadingCalls++
	g.LastReading = &prompt
	response, err, block := g.ReadingResponse, g.ReadingError, g.Block
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	if response != "" {
		return response, nil
	}

	names := make([]string, 0, len(prompt.Cards))
	for _, card := range prompt.Cards {
		names = append(names, card.Name)
	}
	g.log.Debug("mock reading generated", "spread_type", prompt.SpreadType, "cards", len(names))
	return fmt.Sprintf("The cards %v speak of patience and a quiet change ahead.", names), nil
}

// ContinueChat заготовленный ответ чата
func (g *Generator) ContinueChat(ctx context.Context, prompt service.ChatPrompt) (string, error) {
	g.mu.Lock()
	g.ChatCalls++
	g.LastChat = &prompt
	response, err, block := g.ChatResponse, g.ChatError, g.Block
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	if response != "" {
		return response, nil
	}
	return "Trust what the cards already showed you.", nil
}

// Calls количество вызовов генерации и чата
func (g *Generator) Calls() (readings, chats int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ReadingCalls, g.ChatCalls
}
