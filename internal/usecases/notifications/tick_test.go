package notifications

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/gemini/mock"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/inmemory"
	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
	"github.com/Mel762/telegramTarorApp/internal/repository/memory"
	"github.com/Mel762/telegramTarorApp/internal/usecases/quota"
)

var morning = time.Date(2026, 5, 20, 9, 5, 0, 0, time.UTC)

type delivery struct {
	chatID int64
	text   string
	photo  bool
}

type fakeTelegram struct {
	mu         sync.Mutex
	deliveries []delivery
	err        error
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	return f.record(delivery{chatID: chatID, text: text})
}

func (f *fakeTelegram) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error {
	return f.record(delivery{chatID: chatID, text: text})
}

func (f *fakeTelegram) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	return f.record(delivery{chatID: chatID, text: caption, photo: true})
}

func (f *fakeTelegram) record(d delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deliveries = append(f.deliveries, d)
	return nil
}

func (f *fakeTelegram) sent() []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery(nil), f.deliveries...)
}

type fakeCardImages struct {
	err error
}

func (f *fakeCardImages) GetCardImage(ctx context.Context, cardID string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + cardID), nil
}

type fakeAlerter struct {
	alerts []string
}

func (f *fakeAlerter) SendAlert(ctx context.Context, message string) error {
	f.alerts = append(f.alerts, message)
	return nil
}

type fixture struct {
	svc       *Service
	store     *memory.Store
	generator *mock.Generator
	telegram  *fakeTelegram
	locker    *inmemory.Locker
	alerter   *fakeAlerter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Discard()
	store := memory.NewStore()
	generator := mock.New(log)
	generator.ReadingResponse = "A calm day for *decisions*."

	f := &fixture{
		store:     store,
		generator: generator,
		telegram:  &fakeTelegram{},
		locker:    inmemory.NewLocker(),
		alerter:   &fakeAlerter{},
	}
	f.svc = New(
		store.Users(),
		store.Notifications(),
		quota.New(store.Users(), store.Readings(), log),
		generator,
		f.telegram,
		f.locker,
		nil,
		f.alerter,
		nil,
		"https://t.me/tarot_bot/app",
		time.Second,
		log,
	)
	f.svc.Rand = rand.New(rand.NewPCG(1, 2))
	return f
}

func (f *fixture) addUser(telegramID, clock string, autoReading bool) domain.User {
	user := *domain.NewUser(telegramID, nil, nil, domain.LanguageEN, morning.AddDate(0, 0, -10))
	user.NotificationsEnabled = true
	user.NotificationTime = clock
	user.ReceiveDailyReading = autoReading
	f.store.PutUser(user)
	return user
}

func TestTick_ReminderOncePerDay(t *testing.T) {
	f := newFixture(t)
	user := f.addUser("1001", "09:00", false)
	ctx := context.Background()

	report, err := f.svc.Tick(ctx, morning)
	require.NoError(t, err)
	assert.Equal(t, TickReport{Due: 1, Reminders: 1}, report)

	report, err = f.svc.Tick(ctx, morning.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, TickReport{}, report)

	sent := f.telegram.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(1001), sent[0].chatID)

	history := f.store.HistoryOf(user.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.NotificationDailyReminder, history[0].MessageType)

	readings, _ := f.generator.Calls()
	assert.Zero(t, readings)
}

func TestTick_AutoReadingConsumesDayGate(t *testing.T) {
	f := newFixture(t)
	user := f.addUser("1002", "08:30", true)
	ctx := context.Background()

	report, err := f.svc.Tick(ctx, morning)
	require.NoError(t, err)
	assert.Equal(t, TickReport{Due: 1, AutoReadings: 1}, report)

	sent := f.telegram.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].text, "A calm day for decisions.")

	readings := f.store.ReadingsOf(user.ID)
	require.Len(t, readings, 1)
	assert.Equal(t, domain.SpreadDay, readings[0].SpreadType)
	require.Len(t, readings[0].Cards, 1)

	history := f.store.HistoryOf(user.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.NotificationAutoReading, history[0].MessageType)

	stored, _ := f.store.User("1002")
	require.NotNil(t, stored.LastDailyReadingDate)
	assert.True(t, stored.LastDailyReadingDate.Equal(domain.DateOnly(morning)))

	report, err = f.svc.Tick(ctx, morning.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.Due)
	assert.Len(t, f.telegram.sent(), 1)
}

func TestTick_SendsAgainNextDay(t *testing.T) {
	f := newFixture(t)
	f.addUser("1003", "09:00", false)
	ctx := context.Background()

	_, err := f.svc.Tick(ctx, morning)
	require.NoError(t, err)

	report, err := f.svc.Tick(ctx, morning.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Reminders)
	assert.Len(t, f.telegram.sent(), 2)
}

func TestTick_SelectsOnlyDueUsers(t *testing.T) {
	f := newFixture(t)
	f.addUser("2001", "10:00", false)
	disabled := f.addUser("2002", "08:00", false)
	disabled.NotificationsEnabled = false
	f.store.PutUser(disabled)

	// карта дня уже вытянута в приложении
	manual := f.addUser("2003", "08:00", true)
	day := domain.NewReading(manual.ID, domain.SpreadDay, domain.CardSet{{ID: "major_10", Name: "Wheel of Fortune"}}, "", "text", morning.Add(-time.Hour))
	require.NoError(t, f.store.Readings().CreateTx(context.Background(), nil, day))

	report, err := f.svc.Tick(context.Background(), morning)
	require.NoError(t, err)

	assert.Zero(t, report.Due)
	assert.Empty(t, f.telegram.sent())
}

func TestTick_DeliveryFailureRetriesNextTick(t *testing.T) {
	f := newFixture(t)
	user := f.addUser("3001", "09:00", false)
	f.telegram.err = errors.New("bot was blocked")
	ctx := context.Background()

	report, err := f.svc.Tick(ctx, morning)
	require.NoError(t, err)
	assert.Equal(t, TickReport{Due: 1, Failed: 1}, report)
	assert.Empty(t, f.store.HistoryOf(user.ID))

	f.telegram.err = nil
	report, err = f.svc.Tick(ctx, morning.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reminders)
	assert.Len(t, f.telegram.sent(), 1)
}

func TestTick_GenerationFailureSendsNothing(t *testing.T) {
	f := newFixture(t)
	user := f.addUser("3002", "09:00", true)
	f.generator.ReadingError = errors.New("model overloaded")

	report, err := f.svc.Tick(context.Background(), morning)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, f.telegram.sent())
	assert.Empty(t, f.store.ReadingsOf(user.ID))

	f.generator.ReadingError = nil
	report, err = f.svc.Tick(context.Background(), morning.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.AutoReadings)
}

func TestTick_ClaimedElsewhereIsSkipped(t *testing.T) {
	f := newFixture(t)
	user := f.addUser("4001", "09:00", false)
	dayStart, _ := domain.DayBounds(morning)

	claimed, err := f.locker.TryLock(context.Background(), claimKey(&user, dayStart), time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	report, err := f.svc.Tick(context.Background(), morning)
	require.NoError(t, err)

	assert.Equal(t, TickReport{Due: 1, Skipped: 1}, report)
	assert.Empty(t, f.telegram.sent())
}

func TestTick_PersistFailureAfterDeliveryDoesNotResend(t *testing.T) {
	f := newFixture(t)
	f.addUser("5001", "09:00", true)
	f.store.FailNotificationCreate = errors.New("read-only transaction")
	ctx := context.Background()

	report, err := f.svc.Tick(ctx, morning)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AutoReadings)
	assert.Len(t, f.alerter.alerts, 1)

	report, err = f.svc.Tick(ctx, morning.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, f.telegram.sent(), 1)
}

func TestTick_CardImageSentBeforeText(t *testing.T) {
	f := newFixture(t)
	f.svc.CardImages = &fakeCardImages{}
	f.addUser("6001", "09:00", true)

	_, err := f.svc.Tick(context.Background(), morning)
	require.NoError(t, err)

	sent := f.telegram.sent()
	require.Len(t, sent, 2)
	assert.True(t, sent[0].photo)
	assert.False(t, sent[1].photo)
	assert.Equal(t, "A calm day for decisions.", sent[1].text)
}

func TestTick_MissingCardImageFallsBackToText(t *testing.T) {
	f := newFixture(t)
	f.svc.CardImages = &fakeCardImages{err: errors.New("no such key")}
	f.addUser("6002", "09:00", true)

	_, err := f.svc.Tick(context.Background(), morning)
	require.NoError(t, err)

	sent := f.telegram.sent()
	require.Len(t, sent, 1)
	assert.False(t, sent[0].photo)
	assert.True(t, strings.HasSuffix(sent[0].text, "A calm day for decisions."))
}
