package usecase

import (
	"errors"
	"fmt"
)

// ドメインのエラー種別。HTTPErrorに包んで返すので errors.Is で判定できる。
var (
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrSameWarehouse           = errors.New("same warehouse")
	ErrWarehouseNotFound       = errors.New("warehouse not found")
	ErrProductNotTracked       = errors.New("product not tracked")
	ErrInvalidTransition       = errors.New("invalid transition")
	ErrInvalidStateForDeletion = errors.New("invalid state for deletion")
	ErrWouldViolateReservation = errors.New("would violate reservation")
)

type HTTPError struct {
	Status  int
	Message string
	Kind    error //種別（nilあり）
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// 種別付き。errors.Is(err, ErrInsufficientStock) のように判定できる。
func NewDomainError(status int, message string, kind error) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Kind:    kind,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
