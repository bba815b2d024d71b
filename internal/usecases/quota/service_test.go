package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
	"github.com/Mel762/telegramTarorApp/internal/repository/memory"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return New(store.Users(), store.Readings(), logger.Discard()), store
}

func putUser(store *memory.Store, tier domain.Tier, mutate func(*domain.User)) domain.User {
	user := *domain.NewUser("1001", nil, nil, domain.LanguageEN, now.Add(-48*time.Hour))
	user.Tier = tier
	if mutate != nil {
		mutate(&user)
	}
	store.PutUser(user)
	return user
}

func reading(user domain.User, spread domain.SpreadType) *domain.Reading {
	cards := domain.CardSet{{ID: "major_00", Name: "The Fool", Position: "General"}}
	return domain.NewReading(user.ID, spread, cards, "", "text", now)
}

func TestCheck_PersistsResetEvenWhenDenied(t *testing.T) {
	svc, store := newTestService(t)
	yesterday := domain.DateOnly(now.AddDate(0, 0, -1))
	user := putUser(store, domain.TierFree, func(u *domain.User) {
		u.DailyOneCardCount = 1
		u.DailyThreeCardCount = 1
		u.LastReadingDate = &yesterday
	})

	// welcome three уже использован раньше
	previous := reading(user, domain.SpreadThree)
	previous.CreatedAt = now.AddDate(0, 0, -2)
	require.NoError(t, store.Readings().CreateTx(context.Background(), nil, previous))

	_, decision, err := svc.Check(context.Background(), user.TelegramID, domain.SpreadThree, now)
	require.NoError(t, err)

	assert.False(t, decision.Allow)
	assert.Equal(t, domain.ReasonBasicRequired, decision.Reason)

	stored, ok := store.User(user.TelegramID)
	require.True(t, ok)
	assert.Zero(t, stored.DailyOneCardCount)
	assert.Zero(t, stored.DailyThreeCardCount)
	require.NotNil(t, stored.LastReadingDate)
	assert.True(t, stored.LastReadingDate.Equal(domain.DateOnly(now)))
}

func TestCheck_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Check(context.Background(), "404", domain.SpreadOne, now)

	assert.True(t, domain.IsNotFound(err))
}

func TestCommit_ConsumesCounter(t *testing.T) {
	svc, store := newTestService(t)
	user := putUser(store, domain.TierBasic, nil)

	consumed, err := svc.Commit(context.Background(), reading(user, domain.SpreadOne), now)
	require.NoError(t, err)

	assert.Equal(t, 1, consumed.DailyOneCardCount)
	stored, _ := store.User(user.TelegramID)
	assert.Equal(t, 1, stored.DailyOneCardCount)
	assert.Len(t, store.ReadingsOf(user.ID), 1)
}

func TestCommit_PrefersCreditOverCounter(t *testing.T) {
	svc, store := newTestService(t)
	user := putUser(store, domain.TierFree, func(u *domain.User) {
		u.FreeReadingsOne = 2
	})

	_, err := svc.Commit(context.Background(), reading(user, domain.SpreadOne), now)
	require.NoError(t, err)

	stored, _ := store.User(user.TelegramID)
	assert.Equal(t, 1, stored.FreeReadingsOne)
	assert.Zero(t, stored.DailyOneCardCount)
}

func TestCommit_DeniedWhenDayGateAlreadyUsed(t *testing.T) {
	svc, store := newTestService(t)
	user := putUser(store, domain.TierMax, nil)

	_, err := svc.Commit(context.Background(), reading(user, domain.SpreadDay), now)
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), reading(user, domain.SpreadDay), now.Add(time.Hour))

	denial, ok := domain.AsQuotaDenied(err)
	require.True(t, ok, "expected quota denial, got %v", err)
	assert.Equal(t, domain.DenialDailyGateUsed, denial.Kind)
	assert.NotEmpty(t, denial.Message)
	assert.Len(t, store.ReadingsOf(user.ID), 1)
}

func TestCommit_DayGateReopensNextDay(t *testing.T) {
	svc, store := newTestService(t)
	user := putUser(store, domain.TierFree, nil)

	_, err := svc.Commit(context.Background(), reading(user, domain.SpreadDay), now)
	require.NoError(t, err)

	next := reading(user, domain.SpreadDay)
	next.CreatedAt = now.AddDate(0, 0, 1)
	_, err = svc.Commit(context.Background(), next, now.AddDate(0, 0, 1))

	assert.NoError(t, err)
	assert.Len(t, store.ReadingsOf(user.ID), 2)
}

func TestCommit_RollsBackWhenReadingNotSaved(t *testing.T) {
	svc, store := newTestService(t)
	user := putUser(store, domain.TierBasic, nil)
	store.FailReadingCreate = errors.New("disk full")

	_, err := svc.Commit(context.Background(), reading(user, domain.SpreadOne), now)
	require.Error(t, err)

	stored, _ := store.User(user.TelegramID)
	assert.Zero(t, stored.DailyOneCardCount)
	assert.Nil(t, stored.LastReadingDate)
	assert.Empty(t, store.ReadingsOf(user.ID))
}

func TestCommit_ConcurrentRequestsNeverExceedLimit(t *testing.T) {
	svc, store := newTestService(t)
	user := putUser(store, domain.TierMax, nil)
	limit := domain.LimitsFor(domain.TierMax).One

	const requests = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		denied  int
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Commit(context.Background(), reading(user, domain.SpreadOne), now)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				allowed++
				return
			}
			if _, ok := domain.AsQuotaDenied(err); ok {
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, allowed)
	assert.Equal(t, requests-limit, denied)
	assert.Len(t, store.ReadingsOf(user.ID), limit)

	stored, _ := store.User(user.TelegramID)
	assert.Equal(t, limit, stored.DailyOneCardCount)
}

func TestCheckChatTurn(t *testing.T) {
	svc, _ := newTestService(t)
	user := &domain.User{Tier: domain.TierFree}
	history := []domain.ChatTurn{
		{Role: domain.ChatRoleUser, Content: "a"},
		{Role: domain.ChatRoleModel, Content: "b"},
		{Role: domain.ChatRoleUser, Content: "c"},
	}

	assert.True(t, svc.CheckChatTurn(user, history).Allow)

	history = append(history, domain.ChatTurn{Role: domain.ChatRoleUser, Content: "d"})
	decision := svc.CheckChatTurn(user, history)
	assert.False(t, decision.Allow)
	assert.Equal(t, domain.ReasonChatLimit, decision.Reason)
}

func TestDenial_LocalizedMessage(t *testing.T) {
	svc, _ := newTestService(t)
	user := &domain.User{Tier: domain.TierFree, LanguageCode: domain.LanguageRU}

	denial := svc.Denial(user, domain.Denied(domain.SpreadThree, domain.ReasonBasicRequired))

	assert.Equal(t, domain.DenialUpgradeRequired, denial.Kind)
	assert.Equal(t, domain.ReasonBasicRequired, denial.Reason)
	assert.NotEmpty(t, denial.Message)
}
