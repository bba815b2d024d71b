// Package memory хранилище в памяти процесса с теми же гарантиями, что у postgres-репозиториев:
// транзакции сериализуются, при ошибке изменения откатываются.
// Только для тестов: сырой SQL через Tx не поддерживается и возвращает ErrRawQuery.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/google/uuid"
)

// ErrRawQuery хранилище в памяти не выполняет SQL
var ErrRawQuery = errors.New("raw queries are not supported by memory store")

// Store общее состояние всех репозиториев
type Store struct {
	txMu sync.Mutex // одна транзакция за раз, аналог FOR UPDATE
	mu   sync.Mutex

	users    map[uuid.UUID]domain.User
	readings []domain.Reading
	history  []domain.NotificationHistory
	payments map[uuid.UUID]domain.Payment

	// Ошибки записи для проверки отказов хранилища
	FailReadingCreate      error
	FailNotificationCreate error
	FailQuotaUpdate        error

	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		payments: make(map[uuid.UUID]domain.Payment),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Users репозиторий пользователей поверх хранилища
func (s *Store) Users() repository.IUserRepo { return &UserRepo{s: s} }

func (s *Store) Readings() repository.IReadingRepo { return &ReadingRepo{s: s} }

func (s *Store) Notifications() repository.INotificationRepo { return &NotificationRepo{s: s} }

func (s *Store) Payments() repository.IPaymentRepo { return &PaymentRepo{s: s} }

// PutUser кладёт пользователя как есть
func (s *Store) PutUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// User текущее состояние пользователя
func (s *Store) User(telegramID string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.findByTelegramID(telegramID)
	return u, ok
}

// ReadingsOf все расклады пользователя в порядке записи
func (s *Store) ReadingsOf(userID uuid.UUID) []domain.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reading
	for _, r := range s.readings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// HistoryOf записи истории уведомлений пользователя
func (s *Store) HistoryOf(userID uuid.UUID) []domain.NotificationHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NotificationHistory
	for _, h := range s.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out
}

// Payment текущее состояние платежа
func (s *Store) Payment(id uuid.UUID) (domain.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	return p, ok
}

func (s *Store) findByTelegramID(telegramID string) (domain.User, bool) {
	for _, u := range s.users {
		if u.TelegramID == telegramID {
			return u, true
		}
	}
	return domain.User{}, false
}

type snapshot struct {
	users    map[uuid.UUID]domain.User
	readings []domain.Reading
	history  []domain.NotificationHistory
	payments map[uuid.UUID]domain.Payment
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		users:    make(map[uuid.UUID]domain.User, len(s.users)),
		readings: append([]domain.Reading(nil), s.readings...),
		history:  append([]domain.NotificationHistory(nil), s.history...),
		payments: make(map[uuid.UUID]domain.Payment, len(s.payments)),
	}
	for id, u := range s.users {
		snap.users[id] = u
	}
	for id, p := range s.payments {
		snap.payments[id] = p
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.readings = snap.readings
	s.history = snap.history
	s.payments = snap.payments
}

// beginTx захватывает хранилище до Commit или Rollback
func (s *Store) beginTx() *Tx {
	s.txMu.Lock()
	return &Tx{store: s, snap: s.snapshot()}
}

func (s *Store) withTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	tx := s.beginTx()
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Tx транзакция хранилища в памяти
type Tx struct {
	store *Store
	snap  snapshot
	done  bool
}

var _ persistence.Transaction = (*Tx)(nil)

func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.txMu.Unlock()
	return nil
}

func (t *Tx) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return ErrRawQuery
}

func (t *Tx) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return ErrRawQuery
}

func (t *Tx) Exec(ctx context.Context, query string, args ...interface{}) error {
	return ErrRawQuery
}

func (t *Tx) ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return 0, ErrRawQuery
}

func (t *Tx) NamedExec(ctx context.Context, query string, arg interface{}) error {
	return ErrRawQuery
}

func (t *Tx) NamedExecWithResult(ctx context.Context, query string, arg interface{}) (int64, error) {
	return 0, ErrRawQuery
}

// QueryRow всегда nil: *sqlx.Row с ошибкой вне sqlx не собрать, репозитории памяти его не вызывают
func (t *Tx) QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return nil
}

func (t *Tx) NamedQuery(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return nil, ErrRawQuery
}

func sortReadingsDesc(readings []*domain.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].CreatedAt.After(readings[j].CreatedAt)
	})
}
