package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// SpreadType тип расклада
type SpreadType string

const (
	SpreadDay   SpreadType = "day"   // карта дня, раз в календарный день
	SpreadOne   SpreadType = "one"   // одна карта, дневной счётчик
	SpreadThree SpreadType = "three" // три карты, дневной счётчик + welcome для free
)

func (s SpreadType) String() string {
	return string(s)
}

func (s SpreadType) IsValid() bool {
	switch s {
	case SpreadDay, SpreadOne, SpreadThree:
		return true
	default:
		return false
	}
}

// IsPurchasable для day кредиты не продаются
func (s SpreadType) IsPurchasable() bool {
	return s == SpreadOne || s == SpreadThree
}

// ParseSpreadType разбирает тип расклада из запроса
func ParseSpreadType(s string) (SpreadType, error) {
	st := SpreadType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSpreadType, s)
	}
	return st, nil
}

// Positions позиции карт в раскладе
func (s SpreadType) Positions() []string {
	if s == SpreadThree {
		return []string{"Past", "Present", "Future"}
	}
	return []string{"General"}
}

// CardDraw вытянутая карта: идентификатор, ориентация и позиция в раскладе
type CardDraw struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsReversed bool   `json:"isReversed"`
	Position   string `json:"position,omitempty"`
}

// Orientation Upright/Reversed для промпта
func (c CardDraw) Orientation() string {
	if c.IsReversed {
		return "Reversed"
	}
	return "Upright"
}

// CardSet упорядоченный набор карт (JSONB) с поддержкой sql.Scanner
type CardSet []CardDraw

// Scan реализует sql.Scanner для сканирования JSONB из БД
func (c *CardSet) Scan(value interface{}) error {
	if value == nil {
		*c = CardSet{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported card set type %T", value)
	}

	if len(bytes) == 0 {
		*c = CardSet{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// Value реализует driver.Valuer для сохранения в БД
func (c CardSet) Value() (driver.Value, error) {
	if len(c) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
