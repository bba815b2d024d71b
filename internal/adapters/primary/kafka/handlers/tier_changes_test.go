package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
)

type fakeUsers struct {
	telegramID string
	tier       domain.Tier
	err        error
}

func (f *fakeUsers) GetOrCreate(ctx context.Context, telegramID string, username, firstName *string, lang domain.Language) (*domain.User, error) {
	return nil, errors.New("not used")
}

func (f *fakeUsers) UpdateSettings(ctx context.Context, telegramID string, settings domain.NotificationSettings) error {
	return errors.New("not used")
}

func (f *fakeUsers) UpgradeTier(ctx context.Context, telegramID string, tier domain.Tier) error {
	f.telegramID = telegramID
	f.tier = tier
	return f.err
}

func TestTierChangesHandler(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		upgradeErr   error
		wantErr      bool
		wantBusiness bool
		wantID       string
		wantTier     domain.Tier
	}{
		{name: "applied", key: "42", value: `{"telegram_id":"42","tier":"basic"}`, wantID: "42", wantTier: domain.TierBasic},
		{name: "id from key", key: "77", value: `{"tier":"Max"}`, wantID: "77", wantTier: domain.TierMax},
		{name: "malformed json", key: "42", value: `{tier`, wantErr: true, wantBusiness: true},
		{name: "unknown tier", key: "42", value: `{"tier":"gold"}`, wantErr: true, wantBusiness: true},
		{name: "unknown user", key: "404", value: `{"tier":"basic"}`, upgradeErr: domain.ErrUserNotFound, wantErr: true, wantBusiness: true, wantID: "404", wantTier: domain.TierBasic},
		{name: "storage failure retried", key: "42", value: `{"tier":"basic"}`, upgradeErr: errors.New("db down"), wantErr: true, wantID: "42", wantTier: domain.TierBasic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsers{err: tt.upgradeErr}
			handler := NewTierChangesHandler(users, logger.Discard())

			err := handler.HandleMessage(context.Background(), tt.key, []byte(tt.value), map[string]string{"source": "billing"})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantBusiness, domain.IsBusinessError(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantID, users.telegramID)
			assert.Equal(t, tt.wantTier, users.tier)
		})
	}
}
