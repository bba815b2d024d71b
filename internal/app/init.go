package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	server "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http"
	adminController "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/admin"
	alerterController "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/alerter"
	healthcheckController "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/healthcheck"
	invoiceController "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/invoice"
	readingController "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/reading"
	telegramController "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/telegram"
	userController "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/user"
	kafkaConsumerAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/primary/kafka"
	kafkaHandlers "github.com/Mel762/telegramTarorApp/internal/adapters/primary/kafka/handlers"
	alerterAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/alerter"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/gemini"
	geminiMock "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/gemini/mock"
	kafkaAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/kafka"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/inmemory"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/s3"
	tgAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/telegram"
	"github.com/Mel762/telegramTarorApp/internal/ports/cache"
	kafkaPorts "github.com/Mel762/telegramTarorApp/internal/ports/kafka"
	"github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/Mel762/telegramTarorApp/internal/ports/storage"
	notificationRepo "github.com/Mel762/telegramTarorApp/internal/repository/notification"
	paymentRepo "github.com/Mel762/telegramTarorApp/internal/repository/payment"
	readingRepo "github.com/Mel762/telegramTarorApp/internal/repository/reading"
	userRepo "github.com/Mel762/telegramTarorApp/internal/repository/user"
	alerterService "github.com/Mel762/telegramTarorApp/internal/services/alerter"
	jobScheduler "github.com/Mel762/telegramTarorApp/internal/services/jobs"
	telegramService "github.com/Mel762/telegramTarorApp/internal/services/telegram"
	"github.com/Mel762/telegramTarorApp/internal/usecases/notifications"
	paymentUsecase "github.com/Mel762/telegramTarorApp/internal/usecases/payment"
	"github.com/Mel762/telegramTarorApp/internal/usecases/quota"
	"github.com/Mel762/telegramTarorApp/internal/usecases/tarot"
)

type Dependencies struct {
	DB              *sqlx.DB
	HTTPServer      *http.Server
	TelegramService *telegramService.Service
	TelegramPoller  *tgAdapter.Poller
	KafkaProducers  map[string]*kafkaAdapter.Producer
	KafkaConsumers  map[string]*kafkaConsumerAdapter.Consumer
	Redis           *redisAdapter.Client
	JobScheduler    *jobScheduler.Scheduler
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	db, err := a.initPostgres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	repos := a.initRepositories(db)
	external := a.initExternalServices()

	tgClient, tgService := a.initTelegram(ctx)

	kafkaProducers := a.initKafkaProducers()
	var events kafkaPorts.IEventPublisher
	if producer, ok := kafkaProducers[kafkaAdapter.NameEvents]; ok {
		events = producer
	}

	useCases := a.initUseCases(repos, tgService, external, events)
	payments := a.initPayment(tgClient, repos, tgService, external)
	tgService.SetUseCases(useCases.Tarot, useCases.Tarot, payments)

	kafkaConsumers := a.initKafkaConsumers(useCases.Tarot)

	httpServer := a.initHTTP(db, external, tgService, useCases, payments)
	poller, err := a.initTelegramMode(ctx, tgClient, tgService)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram mode: %w", err)
	}

	scheduler, err := a.initJobScheduler(external.Alerter, useCases.Notifications, payments)
	if err != nil {
		return nil, fmt.Errorf("failed to init job scheduler: %w", err)
	}

	return &Dependencies{
		DB:              db,
		HTTPServer:      httpServer,
		TelegramService: tgService,
		TelegramPoller:  poller,
		KafkaProducers:  kafkaProducers,
		KafkaConsumers:  kafkaConsumers,
		Redis:           external.Redis,
		JobScheduler:    scheduler,
	}, nil
}

// repositories содержит инициализированные репозитории
type repositories struct {
	User         repository.IUserRepo
	Reading      repository.IReadingRepo
	Notification repository.INotificationRepo
	Payment      repository.IPaymentRepo
}

// initRepositories инициализирует репозитории для работы с БД
func (a *App) initRepositories(db *sqlx.DB) *repositories {
	persistenceLayer := pg.NewDB(db)
	return &repositories{
		User:         userRepo.New(persistenceLayer, a.Log),
		Reading:      readingRepo.New(persistenceLayer, a.Log),
		Notification: notificationRepo.New(persistenceLayer, a.Log),
		Payment:      paymentRepo.New(persistenceLayer, a.Log),
	}
}

// externalServices внешние сервисы; всё кроме генератора и локера опционально
type externalServices struct {
	Generator  service.IReadingGenerator
	Alerter    service.IAlerterService
	Redis      *redisAdapter.Client
	Locker     cache.Locker
	Cache      cache.Cache
	CardImages storage.ICardImages
}

// initExternalServices инициализирует внешние сервисы (Gemini, Alerter, Redis, S3)
func (a *App) initExternalServices() *externalServices {
	services := &externalServices{}

	if a.Cfg.Gemini.Provider == gemini.ProviderMock {
		a.Log.Warn("mock reading generator enabled - this should only be used for local development")
		services.Generator = geminiMock.New(a.Log)
	} else {
		services.Generator = gemini.NewClient(a.Cfg.Gemini, a.Log)
	}

	// Alerter - опциональный
	if alerterClient := alerterAdapter.NewClient(a.Cfg.Alerter, a.Log); alerterClient != nil {
		services.Alerter = alerterService.New(alerterClient, a.Cfg.Tarot.Instance, a.Log)
	} else {
		a.Log.Info("alerter is not configured, alerts disabled")
	}

	// Redis - опциональный; без него claim уведомлений живёт в памяти процесса
	if a.Cfg.Redis != nil && a.Cfg.Redis.Enabled {
		redisClient, err := a.Cfg.Redis.NewConnection()
		if err != nil {
			a.Log.Warn("failed to init redis, continuing with in-memory locks", "error", err)
		} else {
			services.Redis = redisAdapter.NewClient(redisClient)
			services.Locker = services.Redis
			services.Cache = services.Redis
			a.Log.Info("redis connected successfully")
		}
	}
	if services.Locker == nil {
		services.Locker = inmemory.NewLocker()
	}

	// S3 - опциональный, картинки карт к ежедневному раскладу
	if a.Cfg.S3 != nil && a.Cfg.S3.Enabled() {
		minioClient, err := a.Cfg.S3.NewClient()
		if err != nil {
			a.Log.Warn("failed to init s3, card images disabled", "error", err)
		} else {
			files := s3Adapter.NewClient(minioClient, a.Cfg.S3.Bucket, a.Log)
			services.CardImages = s3Adapter.NewCardImages(files, a.Log)
			a.Log.Info("s3 connected successfully", "bucket", a.Cfg.S3.Bucket)
		}
	}

	return services
}

// initTelegram инициализирует Telegram клиент и сервис
func (a *App) initTelegram(ctx context.Context) (*tgAdapter.Client, *telegramService.Service) {
	client := tgAdapter.NewClient(a.Cfg.Telegram.BotToken, a.Log)

	if err := a.registerBotCommands(ctx, client); err != nil {
		a.Log.Warn("failed to register bot commands", "error", err)
	}

	return client, telegramService.New(client, a.Log)
}

// registerBotCommands регистрирует команды бота в Telegram
func (a *App) registerBotCommands(ctx context.Context, client *tgAdapter.Client) error {
	commands := []tgAdapter.BotCommand{
		{Command: "start", Description: "Open the tarot app"},
	}

	return client.SetMyCommands(ctx, commands)
}

// initKafkaProducers producers для конфигов с topic и без consumer group
func (a *App) initKafkaProducers() map[string]*kafkaAdapter.Producer {
	producers := make(map[string]*kafkaAdapter.Producer)

	for _, kafkaCfg := range a.Cfg.Kafka.List {
		if kafkaCfg.Config == nil || kafkaCfg.Config.Topic == "" || kafkaCfg.Config.ConsumerGroup != "" {
			continue
		}

		producer, err := kafkaAdapter.NewProducer(kafkaCfg.Config, a.Log)
		if err != nil {
			a.Log.Warn("failed to create kafka producer", "error", err, "name", kafkaCfg.Name)
			continue
		}
		producers[kafkaCfg.Name] = producer
	}

	return producers
}

// initKafkaConsumers consumers для конфигов с consumer group
func (a *App) initKafkaConsumers(users *tarot.Service) map[string]*kafkaConsumerAdapter.Consumer {
	consumers := make(map[string]*kafkaConsumerAdapter.Consumer)

	for _, kafkaCfg := range a.Cfg.Kafka.List {
		if kafkaCfg.Config == nil || kafkaCfg.Config.ConsumerGroup == "" {
			continue
		}

		handler := a.createHandlerForTopic(kafkaCfg.Name, users)
		if handler == nil {
			a.Log.Warn("no handler for kafka topic, skipping consumer", "name", kafkaCfg.Name)
			continue
		}

		consumer, err := kafkaConsumerAdapter.NewConsumer(kafkaCfg.Config, handler, a.Log)
		if err != nil {
			a.Log.Warn("failed to create kafka consumer", "error", err, "name", kafkaCfg.Name)
			continue
		}
		consumers[kafkaCfg.Name] = consumer
	}

	return consumers
}

// createHandlerForTopic создаёт handler для указанного топика Kafka
func (a *App) createHandlerForTopic(name string, users *tarot.Service) kafkaPorts.MessageHandler {
	switch name {
	case kafkaAdapter.NameTierChanges:
		return kafkaHandlers.NewTierChangesHandler(users, a.Log)
	default:
		return nil
	}
}

type useCases struct {
	Quota         *quota.Service
	Tarot         *tarot.Service
	Notifications *notifications.Service
}

// initUseCases инициализирует UseCases приложения
func (a *App) initUseCases(
	repos *repositories,
	tgService *telegramService.Service,
	external *externalServices,
	events kafkaPorts.IEventPublisher,
) *useCases {
	quotaService := quota.New(repos.User, repos.Reading, a.Log)

	tarotService := tarot.New(
		repos.User,
		repos.Reading,
		quotaService,
		external.Generator,
		tgService,
		external.Alerter, // может быть nil
		events,           // может быть nil
		a.Cfg.Tarot.WebAppURL,
		a.Cfg.Tarot.GenerationTimeout,
		a.Log,
	)

	notificationsService := notifications.New(
		repos.User,
		repos.Notification,
		quotaService,
		external.Generator,
		tgService,
		external.Locker,
		external.CardImages, // может быть nil
		external.Alerter,    // может быть nil
		events,              // может быть nil
		a.Cfg.Tarot.WebAppURL,
		a.Cfg.Tarot.GenerationTimeout,
		a.Log,
	)

	return &useCases{
		Quota:         quotaService,
		Tarot:         tarotService,
		Notifications: notificationsService,
	}
}

// initHTTP инициализирует HTTP сервер и контроллеры
func (a *App) initHTTP(
	db *sqlx.DB,
	external *externalServices,
	tgService *telegramService.Service,
	uc *useCases,
	payments *paymentUsecase.Service,
) *http.Server {
	checks := map[string]healthcheckController.Pinger{
		"postgres": db.PingContext,
	}
	if external.Redis != nil {
		checks["redis"] = external.Redis.Ping
	}

	controllers := []server.Controller{
		healthcheckController.New(checks, a.Log),
		readingController.New(uc.Tarot, a.Log),
		userController.New(uc.Tarot, a.Log),
		invoiceController.New(payments, a.Log),
		telegramController.New(tgService, a.Cfg.Telegram.WebhookSecret, a.Log),
		adminController.New(uc.Notifications, payments, a.Cfg.Tarot.AdminToken, a.Log),
	}

	if external.Alerter != nil {
		controllers = append(controllers, alerterController.New(external.Alerter, a.Log))
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)
}

// initTelegramMode инициализирует режим работы Telegram (webhook или polling)
func (a *App) initTelegramMode(
	ctx context.Context,
	client *tgAdapter.Client,
	tgService *telegramService.Service,
) (*tgAdapter.Poller, error) {
	a.Log.Info("telegram configuration",
		"use_webhook", a.Cfg.Telegram.IsWebhookEnabled(),
		"webhook_url", a.Cfg.Telegram.WebhookURL,
	)

	if a.Cfg.Telegram.IsWebhookEnabled() {
		if err := a.setupWebhook(ctx, client); err != nil {
			return nil, fmt.Errorf("failed to setup webhook: %w", err)
		}
		return nil, nil // webhook режим, poller не нужен
	}

	a.Log.Warn("polling mode enabled - this should only be used for local development")
	return tgAdapter.NewPoller(client, a.Cfg.Telegram, tgService.HandleUpdate, a.Log), nil
}

// setupWebhook устанавливает webhook бота
func (a *App) setupWebhook(ctx context.Context, client *tgAdapter.Client) error {
	if a.Cfg.Telegram.WebhookURL == "" {
		return fmt.Errorf("webhook_url is required when use_webhook is true")
	}

	webhookURL := fmt.Sprintf("%s/webhook/", a.Cfg.Telegram.WebhookURL)
	if err := client.SetWebhook(ctx, webhookURL, a.Cfg.Telegram.WebhookSecret); err != nil {
		a.Log.Error("failed to set webhook", "error", err, "webhook_url", webhookURL)
		return err
	}

	return nil
}

// initJobScheduler инициализирует планировщик джоб
func (a *App) initJobScheduler(
	alerterSvc service.IAlerterService,
	notificationsService *notifications.Service,
	payments *paymentUsecase.Service,
) (*jobScheduler.Scheduler, error) {
	scheduler := jobScheduler.NewScheduler(a.Log, alerterSvc)

	notificationTick, err := jobScheduler.NewNotificationTick(notificationsService, a.Cfg.Tarot.NotificationSchedule, a.Log)
	if err != nil {
		return nil, err
	}
	scheduler.Register(notificationTick)
	a.Log.Info("notification tick job registered", "schedule", a.Cfg.Tarot.NotificationSchedule)

	scheduler.Register(jobScheduler.NewPaymentExpirer(payments, a.Log))
	a.Log.Info("payment expirer job registered")

	return scheduler, nil
}
