package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentMethodTelegramStars PaymentMethod = "telegram_stars"
)

// PaymentStatus статус платежа
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // создан, ожидает оплаты
	PaymentStatusSucceeded PaymentStatus = "succeeded" // успешно оплачен
	PaymentStatusFailed    PaymentStatus = "failed"    // оплата не прошла
	PaymentStatusRefunded  PaymentStatus = "refunded"  // возврат средств
)

// PaymentMetadata метаданные платежа (JSONB) с поддержкой sql.Scanner
type PaymentMetadata map[string]interface{}

// Scan реализует sql.Scanner для сканирования JSONB из БД
func (m *PaymentMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(PaymentMetadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(PaymentMetadata)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(PaymentMetadata)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Value реализует driver.Valuer для сохранения в БД
func (m PaymentMetadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Payment платёж в системе
type Payment struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Amount       int64           `json:"amount" db:"amount"`           // количество звёзд
	Currency     string          `json:"currency" db:"currency"`       // "XTR" для Stars
	Method       PaymentMethod   `json:"method" db:"method"`           // способ оплаты
	ProviderID   string          `json:"provider_id" db:"provider_id"` // ID в системе провайдера (Telegram invoice_id)
	Status       PaymentStatus   `json:"status" db:"status"`
	ProductID    ProductID       `json:"product_id" db:"product_id"`       // что куплено (reading_one, reading_three)
	ProductTitle string          `json:"product_title" db:"product_title"` // название продукта для отображения
	Metadata     PaymentMetadata `json:"metadata,omitempty" db:"metadata"` // дополнительные данные (JSONB)
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	SucceededAt  *time.Time      `json:"succeeded_at,omitempty" db:"succeeded_at"`
	FailedAt     *time.Time      `json:"failed_at,omitempty" db:"failed_at"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
}

// ProductID покупаемый продукт
type ProductID string

const (
	ProductReadingOne   ProductID = "reading_one"
	ProductReadingThree ProductID = "reading_three"
)

// CurrencyStars валюта Telegram Stars
const CurrencyStars = "XTR"

// Product описание продукта для инвойса
type Product struct {
	ID     ProductID
	Spread SpreadType
	Title  string
	Price  int64
}

// ProductForSpread продукт-кредит на расклад указанного типа
func ProductForSpread(spread SpreadType, prices map[SpreadType]int64) (Product, error) {
	if !spread.IsPurchasable() {
		return Product{}, ErrSpreadNotPurchasable
	}
	price, ok := prices[spread]
	if !ok || price <= 0 {
		return Product{}, ErrSpreadNotPurchasable
	}

	product := Product{Spread: spread, Price: price}
	switch spread {
	case SpreadOne:
		product.ID = ProductReadingOne
		product.Title = "1-Card Reading"
	case SpreadThree:
		product.ID = ProductReadingThree
		product.Title = "3-Card Spread"
	}
	return product, nil
}

// SpreadForProduct тип расклада, на который начисляется кредит
func SpreadForProduct(id ProductID) (SpreadType, bool) {
	switch id {
	case ProductReadingOne:
		return SpreadOne, true
	case ProductReadingThree:
		return SpreadThree, true
	default:
		return "", false
	}
}
