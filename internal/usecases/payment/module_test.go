package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
	"github.com/Mel762/telegramTarorApp/internal/ports/cache"
	paymentPort "github.com/Mel762/telegramTarorApp/internal/ports/payment"
	"github.com/Mel762/telegramTarorApp/internal/repository/memory"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type answer struct {
	queryID string
	ok      bool
	reason  string
}

type fakeProvider struct {
	mu         sync.Mutex
	invoices   []paymentPort.CreateInvoiceRequest
	answers    []answer
	invoiceErr error
}

func (p *fakeProvider) CreateInvoice(ctx context.Context, req paymentPort.CreateInvoiceRequest) (*paymentPort.CreateInvoiceResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.invoiceErr != nil {
		return nil, p.invoiceErr
	}
	p.invoices = append(p.invoices, req)
	return &paymentPort.CreateInvoiceResult{InvoiceLink: "https://t.me/$invoice-" + req.Payload}, nil
}

func (p *fakeProvider) ConfirmPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage *string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := answer{queryID: queryID, ok: ok}
	if errorMessage != nil {
		a.reason = *errorMessage
	}
	p.answers = append(p.answers, a)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *fakeCache) Close() error { return nil }

type fakeTelegram struct {
	messages []string
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeTelegram) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error {
	return f.SendMessage(ctx, chatID, text)
}

func (f *fakeTelegram) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	return nil
}

type fakeAlerter struct {
	alerts []string
}

func (f *fakeAlerter) SendAlert(ctx context.Context, message string) error {
	f.alerts = append(f.alerts, message)
	return nil
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	provider *fakeProvider
	cache    *fakeCache
	telegram *fakeTelegram
	alerter  *fakeAlerter
	user     domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	user := *domain.NewUser("9001", nil, nil, domain.LanguageEN, now)
	store.PutUser(user)

	f := &fixture{
		store:    store,
		provider: &fakeProvider{},
		cache:    newFakeCache(),
		telegram: &fakeTelegram{},
		alerter:  &fakeAlerter{},
		user:     user,
	}
	f.svc = New(
		store.Payments(),
		store.Users(),
		f.provider,
		f.telegram,
		f.alerter,
		f.cache,
		map[domain.SpreadType]int64{domain.SpreadOne: 20, domain.SpreadThree: 50},
		24*time.Hour,
		logger.Discard(),
	)
	f.svc.Now = func() time.Time { return now }
	return f
}

func (f *fixture) createInvoice(t *testing.T, spread domain.SpreadType) uuid.UUID {
	t.Helper()
	_, err := f.svc.CreateInvoiceLink(context.Background(), f.user.TelegramID, spread)
	require.NoError(t, err)
	require.NotEmpty(t, f.provider.invoices)
	return uuid.MustParse(f.provider.invoices[len(f.provider.invoices)-1].Payload)
}

func TestCreateInvoiceLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.svc.CreateInvoiceLink(ctx, f.user.TelegramID, domain.SpreadThree)
	require.NoError(t, err)
	require.Len(t, f.provider.invoices, 1)

	req := f.provider.invoices[0]
	assert.Equal(t, int64(50), req.Amount)
	assert.Equal(t, domain.CurrencyStars, req.Currency)
	assert.Equal(t, string(domain.ProductReadingThree), req.ProductID)

	payment, ok := f.store.Payment(uuid.MustParse(req.Payload))
	require.True(t, ok)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	assert.Equal(t, f.user.ID, payment.UserID)

	again, err := f.svc.CreateInvoiceLink(ctx, f.user.TelegramID, domain.SpreadThree)
	require.NoError(t, err)
	assert.Equal(t, link, again)
	assert.Len(t, f.provider.invoices, 1)
}

func TestCreateInvoiceLink_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateInvoiceLink(ctx, f.user.TelegramID, domain.SpreadDay)
	assert.ErrorIs(t, err, domain.ErrSpreadNotPurchasable)

	_, err = f.svc.CreateInvoiceLink(ctx, "unknown", domain.SpreadOne)
	assert.True(t, domain.IsNotFound(err))

	_, err = f.svc.CreateInvoiceLink(ctx, "", domain.SpreadOne)
	assert.ErrorIs(t, err, domain.ErrEmptyExternalID)
}

func TestCreateInvoiceLink_ProviderFailureMarksPaymentFailed(t *testing.T) {
	f := newFixture(t)
	f.provider.invoiceErr = errors.New("telegram unavailable")

	_, err := f.svc.CreateInvoiceLink(context.Background(), f.user.TelegramID, domain.SpreadOne)
	require.Error(t, err)

	f.svc.Now = func() time.Time { return now.Add(48 * time.Hour) }
	expired, err := f.svc.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired, "failed invoice must not stay pending")
}

func TestHandlePreCheckoutQuery(t *testing.T) {
	f := newFixture(t)
	paymentID := f.createInvoice(t, domain.SpreadOne)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  uuid.UUID
		amount  int64
		payload string
		wantOK  bool
		reason  string
	}{
		{"unknown payload", f.user.ID, 20, "not-a-uuid", false, "Payment not found"},
		{"missing payment", f.user.ID, 20, uuid.NewString(), false, "Payment not found"},
		{"other user", uuid.New(), 20, paymentID.String(), false, "Payment belongs to another user"},
		{"wrong amount", f.user.ID, 1, paymentID.String(), false, "Payment amount mismatch"},
		{"valid", f.user.ID, 20, paymentID.String(), true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.svc.HandlePreCheckoutQuery(ctx, "q-"+tt.name, tt.userID, tt.amount, domain.CurrencyStars, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)

			last := f.provider.answers[len(f.provider.answers)-1]
			assert.Equal(t, "q-"+tt.name, last.queryID)
			assert.Equal(t, tt.wantOK, last.ok)
			assert.Equal(t, tt.reason, last.reason)
		})
	}
}

func TestHandleSuccessfulPayment_CreditsOnce(t *testing.T) {
	f := newFixture(t)
	paymentID := f.createInvoice(t, domain.SpreadThree)
	ctx := context.Background()

	require.NoError(t, f.svc.HandleSuccessfulPayment(ctx, f.user.ID, 9001, paymentID, "charge-1"))
	require.NoError(t, f.svc.HandleSuccessfulPayment(ctx, f.user.ID, 9001, paymentID, "charge-1"))

	stored, _ := f.store.User(f.user.TelegramID)
	assert.Equal(t, 1, stored.FreeReadingsThree)
	assert.Zero(t, stored.FreeReadingsOne)

	payment, _ := f.store.Payment(paymentID)
	assert.Equal(t, domain.PaymentStatusSucceeded, payment.Status)
	assert.Equal(t, "charge-1", payment.ProviderID)
	assert.Len(t, f.telegram.messages, 1)

	// оплаченная ссылка не переиспользуется
	_, err := f.svc.CreateInvoiceLink(ctx, f.user.TelegramID, domain.SpreadThree)
	require.NoError(t, err)
	assert.Len(t, f.provider.invoices, 2)

	ok, err := f.svc.HandlePreCheckoutQuery(ctx, "q-late", f.user.ID, 50, domain.CurrencyStars, paymentID.String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleSuccessfulPayment_UserMismatchAlerts(t *testing.T) {
	f := newFixture(t)
	paymentID := f.createInvoice(t, domain.SpreadOne)

	err := f.svc.HandleSuccessfulPayment(context.Background(), uuid.New(), 1, paymentID, "charge-2")

	require.Error(t, err)
	assert.Len(t, f.alerter.alerts, 1)
	payment, _ := f.store.Payment(paymentID)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
}

func TestExpirePending(t *testing.T) {
	f := newFixture(t)
	paymentID := f.createInvoice(t, domain.SpreadOne)

	expired, err := f.svc.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)

	f.svc.Now = func() time.Time { return now.Add(25 * time.Hour) }
	expired, err = f.svc.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	payment, _ := f.store.Payment(paymentID)
	assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
}
