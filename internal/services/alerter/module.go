package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/ports/service"
)

const defaultDedupWindow = 5 * time.Minute

type alertSender interface {
	SendAlert(ctx context.Context, message string) error
}

// Service реализует IAlerterService: префикс инстанса и подавление одинаковых алертов в окне
type Service struct {
	client      alertSender
	instance    string
	dedupWindow time.Duration
	now         func() time.Time
	log         *slog.Logger

	mu   sync.Mutex
	sent map[string]time.Time
}

// New создаёт сервис алертов; без клиента возвращает nil, алерты отключены
func New(client alertSender, instance string, log *slog.Logger) service.IAlerterService {
	if client == nil {
		return nil
	}
	return &Service{
		client:      client,
		instance:    instance,
		dedupWindow: defaultDedupWindow,
		now:         time.Now,
		log:         log,
		sent:        make(map[string]time.Time),
	}
}

// SendAlert отправляет алерт
func (s *Service) SendAlert(ctx context.Context, message string) error {
	if s.suppressed(message) {
		s.log.Debug("duplicate alert suppressed")
		return nil
	}

	if s.instance != "" {
		message = fmt.Sprintf("[%s]\n%s", s.instance, message)
	}
	return s.client.SendAlert(ctx, message)
}

func (s *Service) suppressed(message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for msg, at := range s.sent {
		if now.Sub(at) >= s.dedupWindow {
			delete(s.sent, msg)
		}
	}

	if _, ok := s.sent[message]; ok {
		return true
	}
	s.sent[message] = now
	return false
}
