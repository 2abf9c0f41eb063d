package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrDuplicateSession = errors.New("order already exists for session")
)

type Order struct {
	ID              string
	ProductID       string
	Amount          decimal.Decimal // converted amount, in Currency
	Currency        string
	SessionID       string // payment provider checkout session id
	Status          Status // lihat status.go
	CustomerCountry string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type NewOrder struct {
	ProductID       string
	Amount          decimal.Decimal
	Currency        string
	SessionID       string
	CustomerCountry string
	Status          Status // defaults to pending
}
