package userRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	ports "github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/google/uuid"
)

type userColumns struct {
	TableName            string
	ID                   string
	TelegramID           string
	Username             string
	FirstName            string
	LanguageCode         string
	Tier                 string
	DailyOneCardCount    string
	DailyThreeCardCount  string
	LastReadingDate      string
	LastDailyReadingDate string
	FreeReadingsOne      string
	FreeReadingsThree    string
	NotificationsEnabled string
	NotificationTime     string
	ReceiveDailyReading  string
	Timezone             string
	CreatedAt            string
	UpdatedAt            string
	LastSeenAt           string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns userColumns
}

// New создаёт новый репозиторий для работы с пользователями
func New(db persistence.Persistence, log *slog.Logger) ports.IUserRepo {
	cols := userColumns{
		TableName:            "users",
		ID:                   "id",
		TelegramID:           "telegram_id",
		Username:             "username",
		FirstName:            "first_name",
		LanguageCode:         "language_code",
		Tier:                 "tier",
		DailyOneCardCount:    "daily_one_card_count",
		DailyThreeCardCount:  "daily_three_card_count",
		LastReadingDate:      "last_reading_date",
		LastDailyReadingDate: "last_daily_reading_date",
		FreeReadingsOne:      "free_readings_one",
		FreeReadingsThree:    "free_readings_three",
		NotificationsEnabled: "notifications_enabled",
		NotificationTime:     "notification_time",
		ReceiveDailyReading:  "receive_daily_reading",
		Timezone:             "timezone",
		CreatedAt:            "created_at",
		UpdatedAt:            "updated_at",
		LastSeenAt:           "last_seen_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

func (r *Repository) columnList() []string {
	c := r.columns
	return []string{
		c.ID, c.TelegramID, c.Username, c.FirstName, c.LanguageCode, c.Tier,
		c.DailyOneCardCount, c.DailyThreeCardCount, c.LastReadingDate, c.LastDailyReadingDate,
		c.FreeReadingsOne, c.FreeReadingsThree,
		c.NotificationsEnabled, c.NotificationTime, c.ReceiveDailyReading, c.Timezone,
		c.CreatedAt, c.UpdatedAt, c.LastSeenAt,
	}
}

// allColumns все колонки, с префиксом алиаса таблицы если он задан
func (r *Repository) allColumns(alias string) string {
	cols := r.columnList()
	if alias == "" {
		return strings.Join(cols, ", ")
	}
	prefixed := make([]string, len(cols))
	for i, col := range cols {
		prefixed[i] = alias + "." + col
	}
	return strings.Join(prefixed, ", ")
}

func (r *Repository) namedValues() string {
	cols := r.columnList()
	named := make([]string, len(cols))
	for i, col := range cols {
		named[i] = ":" + col
	}
	return strings.Join(named, ", ")
}

// CreateIfNotExists вставляет пользователя; при конфликте по telegram_id возвращает существующую запись
func (r *Repository) CreateIfNotExists(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s
		RETURNING %s`,
		r.columns.TableName,
		r.allColumns(""),
		r.namedValues(),
		r.columns.TelegramID,
		r.columns.TelegramID, r.columns.TelegramID,
		r.allColumns(""))

	rows, err := r.db.NamedQuery(ctx, query, user)
	if err != nil {
		r.Log.Error("failed to create user",
			"error", err,
			"telegram_id", user.TelegramID)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return nil, fmt.Errorf("failed to create user: no row returned")
	}

	var stored domain.User
	if err := rows.StructScan(&stored); err != nil {
		r.Log.Error("failed to scan created user",
			"error", err,
			"telegram_id", user.TelegramID)
		return nil, fmt.Errorf("failed to scan created user: %w", err)
	}

	r.Log.Debug("user provisioned",
		"user_id", stored.ID,
		"telegram_id", stored.TelegramID,
		"created", stored.ID == user.ID)
	return &stored, nil
}

// GetByTelegramID получает пользователя по внешнему идентификатору
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(""),
		r.columns.TableName,
		r.columns.TelegramID)
	return r.getOne(ctx, r.db, query, "telegram_id", telegramID)
}

// GetByID получает пользователя по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(""),
		r.columns.TableName,
		r.columns.ID)
	return r.getOne(ctx, r.db, query, "user_id", id)
}

func (r *Repository) getOne(ctx context.Context, q persistence.Querier, query, key string, value interface{}) (*domain.User, error) {
	var user domain.User
	err := q.Get(ctx, &user, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("user not found", key, value)
			return nil, fmt.Errorf("%w: %s=%v", domain.ErrUserNotFound, key, value)
		}
		r.Log.Error("failed to get user",
			"error", err,
			key, value)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	r.Log.Debug("user retrieved successfully", key, value, "user_id", user.ID)
	return &user, nil
}

// UpdateProfile обновляет данные профиля из Telegram
func (r *Repository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5 WHERE %s = $1`,
		r.columns.TableName,
		r.columns.Username,
		r.columns.FirstName,
		r.columns.LanguageCode,
		r.columns.UpdatedAt,
		r.columns.ID)

	err := r.db.Exec(ctx, query, user.ID, user.Username, user.FirstName, user.LanguageCode, time.Now().UTC())
	if err != nil {
		r.Log.Error("failed to update user profile",
			"error", err,
			"user_id", user.ID)
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	r.Log.Debug("user profile updated", "user_id", user.ID)
	return nil
}

// UpdateLastSeen обновляет время последней активности
func (r *Repository) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		r.columns.TableName,
		r.columns.LastSeenAt,
		r.columns.ID)

	if err := r.db.Exec(ctx, query, userID, time.Now().UTC()); err != nil {
		r.Log.Error("failed to update last seen",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

// UpdateSettings сохраняет настройки уведомлений
func (r *Repository) UpdateSettings(ctx context.Context, telegramID string, settings domain.NotificationSettings) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5 WHERE %s = $1`,
		r.columns.TableName,
		r.columns.NotificationsEnabled,
		r.columns.NotificationTime,
		r.columns.ReceiveDailyReading,
		r.columns.UpdatedAt,
		r.columns.TelegramID)

	affected, err := r.db.ExecWithResult(ctx, query,
		telegramID,
		settings.NotificationsEnabled,
		settings.NotificationTime,
		settings.ReceiveDailyReading,
		time.Now().UTC())
	if err != nil {
		r.Log.Error("failed to update notification settings",
			"error", err,
			"telegram_id", telegramID)
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	if affected == 0 {
		r.Log.Warn("user not found for settings update", "telegram_id", telegramID)
		return fmt.Errorf("%w: telegram_id=%s", domain.ErrUserNotFound, telegramID)
	}

	r.Log.Debug("notification settings updated",
		"telegram_id", telegramID,
		"enabled", settings.NotificationsEnabled,
		"time", settings.NotificationTime)
	return nil
}

// UpdateTier меняет тариф, действует на следующие запросы
func (r *Repository) UpdateTier(ctx context.Context, telegramID string, tier domain.Tier) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		r.columns.TableName,
		r.columns.Tier,
		r.columns.UpdatedAt,
		r.columns.TelegramID)

	affected, err := r.db.ExecWithResult(ctx, query, telegramID, string(tier), time.Now().UTC())
	if err != nil {
		r.Log.Error("failed to update tier",
			"error", err,
			"telegram_id", telegramID,
			"tier", tier)
		return fmt.Errorf("failed to update tier: %w", err)
	}
	if affected == 0 {
		r.Log.Warn("user not found for tier update", "telegram_id", telegramID)
		return fmt.Errorf("%w: telegram_id=%s", domain.ErrUserNotFound, telegramID)
	}

	r.Log.Debug("tier updated", "telegram_id", telegramID, "tier", tier)
	return nil
}

// ListDueForNotification пользователи с включенными уведомлениями, у которых наступило время
// и за сегодня нет ни расклада day, ни записи в истории уведомлений
func (r *Repository) ListDueForNotification(ctx context.Context, clock string, dayStart, dayEnd time.Time) ([]*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s u
		WHERE u.%s = TRUE
		  AND u.%s <= $1
		  AND NOT EXISTS (
			SELECT 1 FROM readings rd
			WHERE rd.user_id = u.%s AND rd.spread_type = $2
			  AND rd.created_at >= $3 AND rd.created_at < $4)
		  AND NOT EXISTS (
			SELECT 1 FROM notification_history nh
			WHERE nh.user_id = u.%s
			  AND nh.created_at >= $3 AND nh.created_at < $4)
		ORDER BY u.%s`,
		r.allColumns("u"),
		r.columns.TableName,
		r.columns.NotificationsEnabled,
		r.columns.NotificationTime,
		r.columns.ID,
		r.columns.ID,
		r.columns.NotificationTime)

	var users []*domain.User
	if err := r.db.Select(ctx, &users, query, clock, string(domain.SpreadDay), dayStart, dayEnd); err != nil {
		r.Log.Error("failed to list users due for notification",
			"error", err,
			"clock", clock)
		return nil, fmt.Errorf("failed to list users due for notification: %w", err)
	}

	r.Log.Debug("users due for notification", "clock", clock, "count", len(users))
	return users, nil
}

// WithTransaction выполняет функцию в транзакции
func (r *Repository) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return r.db.WithTransaction(ctx, fn)
}

// GetByTelegramIDForUpdateTx читает и блокирует строку пользователя до конца транзакции
func (r *Repository) GetByTelegramIDForUpdateTx(ctx context.Context, tx persistence.Transaction, telegramID string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		r.allColumns(""),
		r.columns.TableName,
		r.columns.TelegramID)
	return r.getOne(ctx, tx, query, "telegram_id", telegramID)
}

// GetByIDForUpdateTx читает и блокирует строку пользователя по ID
func (r *Repository) GetByIDForUpdateTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		r.allColumns(""),
		r.columns.TableName,
		r.columns.ID)
	return r.getOne(ctx, tx, query, "user_id", id)
}

// UpdateQuotaTx сохраняет счётчики, кредиты и даты квоты
func (r *Repository) UpdateQuotaTx(ctx context.Context, tx persistence.Transaction, user *domain.User) error {
	query := fmt.Sprintf(`UPDATE %s SET
		%s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8
		WHERE %s = $1`,
		r.columns.TableName,
		r.columns.DailyOneCardCount,
		r.columns.DailyThreeCardCount,
		r.columns.LastReadingDate,
		r.columns.LastDailyReadingDate,
		r.columns.FreeReadingsOne,
		r.columns.FreeReadingsThree,
		r.columns.UpdatedAt,
		r.columns.ID)

	err := tx.Exec(ctx, query,
		user.ID,
		user.DailyOneCardCount,
		user.DailyThreeCardCount,
		user.LastReadingDate,
		user.LastDailyReadingDate,
		user.FreeReadingsOne,
		user.FreeReadingsThree,
		time.Now().UTC())
	if err != nil {
		r.Log.Error("failed to update user quota in transaction",
			"error", err,
			"user_id", user.ID)
		return fmt.Errorf("failed to update user quota: %w", err)
	}

	r.Log.Debug("user quota updated in transaction",
		"user_id", user.ID,
		"daily_one", user.DailyOneCardCount,
		"daily_three", user.DailyThreeCardCount,
		"credits_one", user.FreeReadingsOne,
		"credits_three", user.FreeReadingsThree)
	return nil
}

// AddCreditsTx начисляет купленные кредиты на расклад
func (r *Repository) AddCreditsTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType, amount int) error {
	var column string
	switch spread {
	case domain.SpreadOne:
		column = r.columns.FreeReadingsOne
	case domain.SpreadThree:
		column = r.columns.FreeReadingsThree
	default:
		return fmt.Errorf("%w: %s", domain.ErrSpreadNotPurchasable, spread)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = %s + $2, %s = $3 WHERE %s = $1`,
		r.columns.TableName,
		column, column,
		r.columns.UpdatedAt,
		r.columns.ID)

	affected, err := tx.ExecWithResult(ctx, query, userID, amount, time.Now().UTC())
	if err != nil {
		r.Log.Error("failed to add credits",
			"error", err,
			"user_id", userID,
			"spread_type", spread)
		return fmt.Errorf("failed to add credits: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user_id=%s", domain.ErrUserNotFound, userID)
	}

	r.Log.Debug("credits added", "user_id", userID, "spread_type", spread, "amount", amount)
	return nil
}
