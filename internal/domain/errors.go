package domain

import (
	"errors"
	"fmt"
)

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

// NotFound
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrReadingNotFound = errors.New("reading not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// IsNotFound true для любой ошибки семейства NotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrReadingNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// Ошибки валидации входных данных
var (
	ErrNoCards              = errors.New("no cards provided")
	ErrInvalidSpreadType    = errors.New("invalid spread type")
	ErrInvalidTier          = errors.New("invalid tier")
	ErrInvalidTime          = errors.New("invalid notification time, expected HH:MM")
	ErrEmptyExternalID      = errors.New("user id is required")
	ErrEmptyMessage         = errors.New("message is required")
	ErrSpreadNotPurchasable = errors.New("spread type is not purchasable")
)

// IsValidation ошибка входных данных, для клиента 400
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNoCards, ErrInvalidSpreadType, ErrInvalidTier, ErrInvalidTime,
		ErrEmptyExternalID, ErrEmptyMessage, ErrSpreadNotPurchasable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// QuotaDeniedError ожидаемый отказ по квоте, всегда несёт локализованную причину
type QuotaDeniedError struct {
	Kind    DenialKind
	Reason  ReasonCode
	Message string
}

func (e *QuotaDeniedError) Error() string {
	return fmt.Sprintf("quota denied [%s/%s]: %s", e.Kind, e.Reason, e.Message)
}

// AsQuotaDenied достаёт QuotaDeniedError из цепочки
func AsQuotaDenied(err error) (*QuotaDeniedError, bool) {
	var denied *QuotaDeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}

// GenerationError провайдер генерации упал или не уложился в таймаут
type GenerationError struct {
	Err     error
	Timeout bool
}

func (e *GenerationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("generation timed out: %v", e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// PersistenceError запись в хранилище не удалась после успешной генерации
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed [%s]: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
