package tarot

import (
	"log/slog"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/ports/kafka"
	"github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/Mel762/telegramTarorApp/internal/usecases/quota"
)

const defaultGenerationTimeout = 15 * time.Second

// Service оркестратор: квота, генерация, сохранение
type Service struct {
	UserRepo          repository.IUserRepo
	ReadingRepo       repository.IReadingRepo
	Quota             *quota.Service
	Generator         service.IReadingGenerator
	TelegramService   service.ITelegramService
	AlerterService    service.IAlerterService // может быть nil
	Events            kafka.IEventPublisher   // может быть nil
	WebAppURL         string
	GenerationTimeout time.Duration
	Now               func() time.Time
	Log               *slog.Logger
}

func New(
	userRepo repository.IUserRepo,
	readingRepo repository.IReadingRepo,
	quotaService *quota.Service,
	generator service.IReadingGenerator,
	telegramService service.ITelegramService,
	alerterService service.IAlerterService,
	events kafka.IEventPublisher,
	webAppURL string,
	generationTimeout time.Duration,
	log *slog.Logger,
) *Service {
	if generationTimeout <= 0 {
		generationTimeout = defaultGenerationTimeout
	}
	return &Service{
		UserRepo:          userRepo,
		ReadingRepo:       readingRepo,
		Quota:             quotaService,
		Generator:         generator,
		TelegramService:   telegramService,
		AlerterService:    alerterService,
		Events:            events,
		WebAppURL:         webAppURL,
		GenerationTimeout: generationTimeout,
		Now:               func() time.Time { return time.Now().UTC() },
		Log:               log,
	}
}
