package tarot

import (
	"context"
	"sync"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *domain.InlineKeyboardMarkup
}

type fakeTelegram struct {
	mu       sync.Mutex
	messages []sentMessage
	err      error
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	return f.SendMessageWithKeyboard(ctx, chatID, text, nil)
}

func (f *fakeTelegram) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

func (f *fakeTelegram) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	return f.SendMessage(ctx, chatID, caption)
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (f *fakeAlerter) SendAlert(ctx context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, message)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeEvents) Publish(ctx context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// funcGenerator генератор с произвольным поведением на время вызова
type funcGenerator struct {
	reading func(ctx context.Context, prompt service.ReadingPrompt) (string, error)
}

func (g *funcGenerator) GenerateReading(ctx context.Context, prompt service.ReadingPrompt) (string, error) {
	return g.reading(ctx, prompt)
}

func (g *funcGenerator) ContinueChat(ctx context.Context, prompt service.ChatPrompt) (string, error) {
	return "ok", nil
}
