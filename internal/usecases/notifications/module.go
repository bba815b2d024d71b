package notifications

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/ports/cache"
	"github.com/Mel762/telegramTarorApp/internal/ports/kafka"
	"github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/Mel762/telegramTarorApp/internal/ports/storage"
	"github.com/Mel762/telegramTarorApp/internal/usecases/quota"
)

const defaultGenerationTimeout = 15 * time.Second

// Service ежедневные напоминания и автоматическая карта дня
type Service struct {
	UserRepo          repository.IUserRepo
	NotificationRepo  repository.INotificationRepo
	Quota             *quota.Service
	Generator         service.IReadingGenerator
	TelegramService   service.ITelegramService
	Locker            cache.Locker
	CardImages        storage.ICardImages     // может быть nil
	AlerterService    service.IAlerterService // может быть nil
	Events            kafka.IEventPublisher   // может быть nil
	WebAppURL         string
	GenerationTimeout time.Duration
	Rand              *rand.Rand
	Log               *slog.Logger

	tickMu sync.Mutex
}

func New(
	userRepo repository.IUserRepo,
	notificationRepo repository.INotificationRepo,
	quotaService *quota.Service,
	generator service.IReadingGenerator,
	telegramService service.ITelegramService,
	locker cache.Locker,
	cardImages storage.ICardImages,
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
		NotificationRepo:  notificationRepo,
		Quota:             quotaService,
		Generator:         generator,
		TelegramService:   telegramService,
		Locker:            locker,
		CardImages:        cardImages,
		AlerterService:    alerterService,
		Events:            events,
		WebAppURL:         webAppURL,
		GenerationTimeout: generationTimeout,
		Rand:              rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		Log:               log,
	}
}
