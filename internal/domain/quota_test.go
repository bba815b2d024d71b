package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time {
	d := DateOnly(t)
	return &d
}

func TestResetIfNewDay(t *testing.T) {
	yesterday := today.AddDate(0, 0, -1)

	t.Run("new day resets counters", func(t *testing.T) {
		u := User{DailyOneCardCount: 2, DailyThreeCardCount: 1, LastReadingDate: datePtr(yesterday)}

		got, reset := ResetIfNewDay(u, today)

		assert.True(t, reset)
		assert.Zero(t, got.DailyOneCardCount)
		assert.Zero(t, got.DailyThreeCardCount)
		require.NotNil(t, got.LastReadingDate)
		assert.True(t, got.LastReadingDate.Equal(DateOnly(today)))
	})

	t.Run("same day keeps counters", func(t *testing.T) {
		u := User{DailyOneCardCount: 2, LastReadingDate: datePtr(today)}

		got, reset := ResetIfNewDay(u, today.Add(13*time.Hour))

		assert.False(t, reset)
		assert.Equal(t, 2, got.DailyOneCardCount)
	})

	t.Run("never read", func(t *testing.T) {
		got, reset := ResetIfNewDay(User{}, today)

		assert.True(t, reset)
		require.NotNil(t, got.LastReadingDate)
	})
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		user   User
		spread SpreadType
		facts  QuotaFacts
		allow  bool
		source ConsumptionSource
		reason ReasonCode
	}{
		{
			name:   "day gate open",
			user:   User{Tier: TierFree},
			spread: SpreadDay,
			allow:  true,
			source: SourceDayGate,
		},
		{
			name:   "day gate used today",
			user:   User{Tier: TierMax},
			spread: SpreadDay,
			facts:  QuotaFacts{DayReadingsToday: 1},
			reason: ReasonLimitDay,
		},
		{
			name:   "day gate ignores credits",
			user:   User{Tier: TierFree, FreeReadingsOne: 5},
			spread: SpreadDay,
			facts:  QuotaFacts{DayReadingsToday: 1},
			reason: ReasonLimitDay,
		},
		{
			name:   "free one within limit",
			user:   User{Tier: TierFree},
			spread: SpreadOne,
			allow:  true,
			source: SourceCounter,
		},
		{
			name:   "free one exhausted",
			user:   User{Tier: TierFree, DailyOneCardCount: 1},
			spread: SpreadOne,
			reason: ReasonLimitOne,
		},
		{
			name:   "credit before counter",
			user:   User{Tier: TierFree, DailyOneCardCount: 1, FreeReadingsOne: 1},
			spread: SpreadOne,
			allow:  true,
			source: SourceCredit,
		},
		{
			name:   "basic one second of day",
			user:   User{Tier: TierBasic, DailyOneCardCount: 1},
			spread: SpreadOne,
			allow:  true,
			source: SourceCounter,
		},
		{
			name:   "max one exhausted",
			user:   User{Tier: TierMax, DailyOneCardCount: 3},
			spread: SpreadOne,
			reason: ReasonLimitOne,
		},
		{
			name:   "free welcome three",
			user:   User{Tier: TierFree},
			spread: SpreadThree,
			allow:  true,
			source: SourceWelcome,
		},
		{
			name:   "free three after welcome",
			user:   User{Tier: TierFree},
			spread: SpreadThree,
			facts:  QuotaFacts{ThreeReadingsAllTime: 1},
			reason: ReasonBasicRequired,
		},
		{
			name:   "free three after welcome on a new day still denied",
			user:   User{Tier: TierFree, DailyThreeCardCount: 0},
			spread: SpreadThree,
			facts:  QuotaFacts{ThreeReadingsAllTime: 3},
			reason: ReasonBasicRequired,
		},
		{
			name:   "free three credit",
			user:   User{Tier: TierFree, FreeReadingsThree: 1},
			spread: SpreadThree,
			facts:  QuotaFacts{ThreeReadingsAllTime: 1},
			allow:  true,
			source: SourceCredit,
		},
		{
			name:   "basic three first",
			user:   User{Tier: TierBasic},
			spread: SpreadThree,
			facts:  QuotaFacts{ThreeReadingsAllTime: 10},
			allow:  true,
			source: SourceCounter,
		},
		{
			name:   "basic three second denied",
			user:   User{Tier: TierBasic, DailyThreeCardCount: 1},
			spread: SpreadThree,
			reason: ReasonLimitThree,
		},
		{
			name:   "max three third allowed",
			user:   User{Tier: TierMax, DailyThreeCardCount: 2},
			spread: SpreadThree,
			allow:  true,
			source: SourceCounter,
		},
		{
			name:   "unknown tier treated as free",
			user:   User{Tier: Tier("gold"), DailyOneCardCount: 1},
			spread: SpreadOne,
			reason: ReasonLimitOne,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.user, tt.spread, tt.facts)

			assert.Equal(t, tt.allow, d.Allow)
			assert.Equal(t, tt.spread, d.Spread)
			if tt.allow {
				assert.Equal(t, tt.source, d.Source)
			} else {
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}

func TestRecordConsumption(t *testing.T) {
	t.Run("counter increments and stamps date", func(t *testing.T) {
		u := RecordConsumption(User{Tier: TierBasic}, Decision{Allow: true, Spread: SpreadOne, Source: SourceCounter}, today)

		assert.Equal(t, 1, u.DailyOneCardCount)
		require.NotNil(t, u.LastReadingDate)
		assert.True(t, SameDay(u.LastReadingDate, today))
	})

	t.Run("credit decrements balance only", func(t *testing.T) {
		u := RecordConsumption(User{FreeReadingsThree: 2, DailyThreeCardCount: 1}, Decision{Allow: true, Spread: SpreadThree, Source: SourceCredit}, today)

		assert.Equal(t, 1, u.FreeReadingsThree)
		assert.Equal(t, 1, u.DailyThreeCardCount)
	})

	t.Run("day gate stamps daily date", func(t *testing.T) {
		u := RecordConsumption(User{}, Decision{Allow: true, Spread: SpreadDay, Source: SourceDayGate}, today)

		assert.True(t, SameDay(u.LastDailyReadingDate, today))
		assert.Zero(t, u.DailyOneCardCount)
	})

	t.Run("welcome counts toward three", func(t *testing.T) {
		u := RecordConsumption(User{}, Decision{Allow: true, Spread: SpreadThree, Source: SourceWelcome}, today)

		assert.Equal(t, 1, u.DailyThreeCardCount)
	})

	t.Run("denial leaves user untouched", func(t *testing.T) {
		in := User{DailyOneCardCount: 1}
		u := RecordConsumption(in, Denied(SpreadOne, ReasonLimitOne), today)

		assert.Equal(t, in, u)
	})

	t.Run("credit never goes negative", func(t *testing.T) {
		u := RecordConsumption(User{}, Decision{Allow: true, Spread: SpreadOne, Source: SourceCredit}, today)

		assert.Zero(t, u.FreeReadingsOne)
	})
}

func TestDecide_BasicThreeBoundaryAcrossDays(t *testing.T) {
	u := User{Tier: TierBasic}
	u, _ = ResetIfNewDay(u, today)

	first := Decide(u, SpreadThree, QuotaFacts{})
	require.True(t, first.Allow)
	u = RecordConsumption(u, first, today)

	second := Decide(u, SpreadThree, QuotaFacts{ThreeReadingsAllTime: 1})
	assert.False(t, second.Allow)
	assert.Equal(t, ReasonLimitThree, second.Reason)

	tomorrow := today.AddDate(0, 0, 1)
	u, reset := ResetIfNewDay(u, tomorrow)
	require.True(t, reset)
	assert.True(t, Decide(u, SpreadThree, QuotaFacts{ThreeReadingsAllTime: 1}).Allow)
}

func TestDecideChatTurn(t *testing.T) {
	history := func(userTurns int) []ChatTurn {
		out := make([]ChatTurn, 0, userTurns*2)
		for i := 0; i < userTurns; i++ {
			out = append(out, ChatTurn{Role: ChatRoleUser, Content: "q"}, ChatTurn{Role: ChatRoleModel, Content: "a"})
		}
		return out
	}

	tests := []struct {
		name   string
		tier   Tier
		turns  int
		allow  bool
		reason ReasonCode
	}{
		{"free under cap", TierFree, 2, true, ""},
		{"free at cap", TierFree, 3, false, ReasonChatLimit},
		{"basic under cap", TierBasic, 9, true, ""},
		{"basic at cap", TierBasic, 10, false, ReasonChatLimit},
		{"max under cap", TierMax, 19, true, ""},
		{"max at cap", TierMax, 20, false, ReasonChatMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecideChatTurn(tt.tier, history(tt.turns))

			assert.Equal(t, tt.allow, d.Allow)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestReasonCodeKind(t *testing.T) {
	assert.Equal(t, DenialDailyGateUsed, ReasonLimitDay.Kind())
	assert.Equal(t, DenialUpgradeRequired, ReasonBasicRequired.Kind())
	assert.Equal(t, DenialChatLimit, ReasonChatMax.Kind())
	assert.Equal(t, DenialLimitReached, ReasonLimitThree.Kind())
}
