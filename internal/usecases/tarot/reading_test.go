package tarot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/gemini/mock"
	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/Mel762/telegramTarorApp/internal/ports/usecase"
	"github.com/Mel762/telegramTarorApp/internal/repository/memory"
	"github.com/Mel762/telegramTarorApp/internal/usecases/quota"
	"github.com/Mel762/telegramTarorApp/internal/usecases/texts"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	store     *memory.Store
	generator *mock.Generator
	telegram  *fakeTelegram
	alerter   *fakeAlerter
	events    *fakeEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Discard()
	store := memory.NewStore()
	store.Now = func() time.Time { return now }
	generator := mock.New(log)
	generator.ReadingResponse = "**The Fool** speaks of <b>new</b> beginnings."
	generator.ChatResponse = "Look at the _present_ card."

	f := &fixture{
		store:     store,
		generator: generator,
		telegram:  &fakeTelegram{},
		alerter:   &fakeAlerter{},
		events:    &fakeEvents{},
	}
	f.svc = New(
		store.Users(),
		store.Readings(),
		quota.New(store.Users(), store.Readings(), log),
		generator,
		f.telegram,
		f.alerter,
		f.events,
		"https://t.me/tarot_bot/app",
		time.Second,
		log,
	)
	f.svc.Now = func() time.Time { return now }
	return f
}

func oneCard() domain.CardSet {
	return domain.CardSet{{ID: "major_00", Name: "The Fool", Position: "General"}}
}

func threeCards() domain.CardSet {
	return domain.CardSet{
		{ID: "major_00", Name: "The Fool", Position: "Past"},
		{ID: "major_01", Name: "The Magician", Position: "Present"},
		{ID: "major_02", Name: "The High Priestess", IsReversed: true, Position: "Future"},
	}
}

func readingRequest(spread domain.SpreadType, cards domain.CardSet) usecase.ReadingRequest {
	return usecase.ReadingRequest{
		TelegramID: "777",
		Lang:       domain.LanguageEN,
		Question:   "What should I focus on?",
		SpreadType: spread,
		Cards:      cards,
	}
}

func TestRequestReading_CreatesUserAndConsumes(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.RequestReading(context.Background(), readingRequest(domain.SpreadOne, oneCard()))
	require.NoError(t, err)

	assert.False(t, result.LimitReached)
	assert.False(t, result.Degraded)
	assert.NotEmpty(t, result.ReadingID)
	assert.Equal(t, "The Fool speaks of new beginnings.", result.Reading)

	user, ok := f.store.User("777")
	require.True(t, ok)
	assert.Equal(t, domain.TierFree, user.Tier)
	assert.Equal(t, 1, user.DailyOneCardCount)

	readings := f.store.ReadingsOf(user.ID)
	require.Len(t, readings, 1)
	assert.Equal(t, result.ReadingID, readings[0].ID.String())
	assert.Equal(t, "What should I focus on?", readings[0].Question)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, domain.EventReadingCreated, f.events.events[0].Type)
}

func TestRequestReading_DeniedWithoutGeneration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestReading(ctx, readingRequest(domain.SpreadOne, oneCard()))
	require.NoError(t, err)

	result, err := f.svc.RequestReading(ctx, readingRequest(domain.SpreadOne, oneCard()))
	require.NoError(t, err)

	assert.True(t, result.LimitReached)
	assert.Equal(t, domain.DenialLimitReached, result.DenialKind)
	assert.Equal(t, texts.DenialReason(domain.ReasonLimitOne, domain.TierFree, domain.LanguageEN), result.Reason)
	readings, _ := f.generator.Calls()
	assert.Equal(t, 1, readings)
}

func TestRequestReading_FreeWelcomeThreeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.RequestReading(ctx, readingRequest(domain.SpreadThree, threeCards()))
	require.NoError(t, err)
	assert.False(t, first.LimitReached)

	// на следующий день welcome уже не действует
	f.svc.Now = func() time.Time { return now.AddDate(0, 0, 1) }
	second, err := f.svc.RequestReading(ctx, readingRequest(domain.SpreadThree, threeCards()))
	require.NoError(t, err)

	assert.True(t, second.LimitReached)
	assert.Equal(t, domain.DenialUpgradeRequired, second.DenialKind)
}

func TestRequestReading_DayGateOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.RequestReading(ctx, readingRequest(domain.SpreadDay, oneCard()))
	require.NoError(t, err)
	require.False(t, first.LimitReached)

	second, err := f.svc.RequestReading(ctx, readingRequest(domain.SpreadDay, oneCard()))
	require.NoError(t, err)
	assert.True(t, second.LimitReached)
	assert.Equal(t, domain.DenialDailyGateUsed, second.DenialKind)

	user, _ := f.store.User("777")
	assert.Len(t, f.store.ReadingsOf(user.ID), 1)
}

func TestRequestReading_GenerationFailureDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	f.generator.ReadingError = errors.New("upstream 503")

	result, err := f.svc.RequestReading(context.Background(), readingRequest(domain.SpreadOne, oneCard()))
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, texts.Fallback(domain.LanguageEN), result.Reading)
	assert.Empty(t, result.ReadingID)

	user, _ := f.store.User("777")
	assert.Zero(t, user.DailyOneCardCount)
	assert.Empty(t, f.store.ReadingsOf(user.ID))
	assert.Empty(t, f.events.events)
}

func TestRequestReading_GenerationTimeout(t *testing.T) {
	f := newFixture(t)
	f.generator.Block = true
	f.svc.GenerationTimeout = 20 * time.Millisecond

	result, err := f.svc.RequestReading(context.Background(), readingRequest(domain.SpreadOne, oneCard()))
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	user, _ := f.store.User("777")
	assert.Zero(t, user.DailyOneCardCount)
}

func TestRequestReading_PersistenceFailureStillReturnsText(t *testing.T) {
	f := newFixture(t)
	f.store.FailReadingCreate = errors.New("connection reset")

	result, err := f.svc.RequestReading(context.Background(), readingRequest(domain.SpreadOne, oneCard()))
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	assert.Empty(t, result.ReadingID)
	assert.Equal(t, "The Fool speaks of new beginnings.", result.Reading)
	assert.Len(t, f.alerter.alerts, 1)

	user, _ := f.store.User("777")
	assert.Zero(t, user.DailyOneCardCount)
}

func TestRequestReading_QuotaSpentDuringGeneration(t *testing.T) {
	f := newFixture(t)
	quotaService := f.svc.Quota

	// параллельный запрос успевает израсходовать единственную карту дня free
	f.svc.Generator = &funcGenerator{reading: func(ctx context.Context, prompt service.ReadingPrompt) (string, error) {
		user, _ := f.store.User("777")
		concurrent := domain.NewReading(user.ID, domain.SpreadOne, oneCard(), "", "other", now)
		_, err := quotaService.Commit(ctx, concurrent, now)
		require.NoError(t, err)
		return "late text", nil
	}}

	result, err := f.svc.RequestReading(context.Background(), readingRequest(domain.SpreadOne, oneCard()))
	require.NoError(t, err)

	assert.True(t, result.LimitReached)
	assert.Equal(t, domain.DenialLimitReached, result.DenialKind)

	user, _ := f.store.User("777")
	assert.Equal(t, 1, user.DailyOneCardCount)
	assert.Len(t, f.store.ReadingsOf(user.ID), 1)
}

func TestRequestReading_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  usecase.ReadingRequest
		want error
	}{
		{"empty user id", usecase.ReadingRequest{SpreadType: domain.SpreadOne, Cards: oneCard()}, domain.ErrEmptyExternalID},
		{"unknown spread", usecase.ReadingRequest{TelegramID: "1", SpreadType: "celtic", Cards: oneCard()}, domain.ErrInvalidSpreadType},
		{"no cards", usecase.ReadingRequest{TelegramID: "1", SpreadType: domain.SpreadOne}, domain.ErrNoCards},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RequestReading(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestContinueChat(t *testing.T) {
	history := func(userTurns int) []domain.ChatTurn {
		var h []domain.ChatTurn
		for i := 0; i < userTurns; i++ {
			h = append(h,
				domain.ChatTurn{Role: domain.ChatRoleUser, Content: "question"},
				domain.ChatTurn{Role: domain.ChatRoleModel, Content: "answer"},
			)
		}
		return h
	}
	chatRequest := func(turns int) usecase.ChatRequest {
		return usecase.ChatRequest{
			TelegramID: "777",
			History:    history(turns),
			NewMessage: "And love?",
			Context: domain.ReadingContext{
				Cards:      oneCard(),
				SpreadType: domain.SpreadOne,
			},
		}
	}

	t.Run("answers within limit", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetOrCreate(context.Background(), "777", nil, nil, domain.LanguageRU)
		require.NoError(t, err)

		result, err := f.svc.ContinueChat(context.Background(), chatRequest(1))
		require.NoError(t, err)

		assert.False(t, result.LimitReached)
		assert.Equal(t, "Look at the present card.", result.Response)
		require.NotNil(t, f.generator.LastChat)
		assert.Equal(t, domain.LanguageRU, f.generator.LastChat.Reading.Lang)
	})

	t.Run("limit reached skips generation", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetOrCreate(context.Background(), "777", nil, nil, domain.LanguageEN)
		require.NoError(t, err)

		result, err := f.svc.ContinueChat(context.Background(), chatRequest(domain.ChatTurnLimit(domain.TierFree)))
		require.NoError(t, err)

		assert.True(t, result.LimitReached)
		assert.Equal(t, texts.DenialReason(domain.ReasonChatLimit, domain.TierFree, domain.LanguageEN), result.Response)
		_, chats := f.generator.Calls()
		assert.Zero(t, chats)
	})

	t.Run("generation failure returns fallback", func(t *testing.T) {
		f := newFixture(t)
		f.generator.ChatError = errors.New("quota exceeded")
		_, err := f.svc.GetOrCreate(context.Background(), "777", nil, nil, domain.LanguageEN)
		require.NoError(t, err)

		result, err := f.svc.ContinueChat(context.Background(), chatRequest(0))
		require.NoError(t, err)

		assert.True(t, result.Degraded)
		assert.Equal(t, texts.Fallback(domain.LanguageEN), result.Response)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.ContinueChat(context.Background(), chatRequest(0))

		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("empty message", func(t *testing.T) {
		f := newFixture(t)
		req := chatRequest(0)
		req.NewMessage = "  "

		_, err := f.svc.ContinueChat(context.Background(), req)

		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	})
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**Bold** and _italic_", "Bold and italic"},
		{"<p>The Tower</p>\n", "The Tower"},
		{"# Header\n`code`", "Header\ncode"},
		{"plain text", "plain text"},
		{"less than 3 < 5 and more > 2", "less than 3 < 5 and more > 2"},
		{"<br/>Love <3 grows", "Love <3 grows"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in))
	}
}
