package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         int64
	Symbol     string
	Status     OrderStatus
	Side       Side
	OrderType  OrderType
	LimitPrice decimal.Decimal
	StopPrice  decimal.Decimal
	Quantity   int64
	FillPrice  decimal.NullDecimal
	FillDate   time.Time
	Label      string
	CreatedBar int
}

func NewOrder(
	id int64,
	symbol string,
	side Side,
	orderType OrderType,
	limitPrice decimal.Decimal,
	stopPrice decimal.Decimal,
	quantity int64,
	label string,
	createdBar int,
) *Order {
	return &Order{
		ID:         id,
		Symbol:     symbol,
		Status:     OrderOpen,
		Side:       side,
		OrderType:  orderType,
		LimitPrice: limitPrice,
		StopPrice:  stopPrice,
		Quantity:   quantity,
		Label:      label,
		CreatedBar: createdBar,
	}
}

func (o *Order) IsOpen() bool {
	return o.Status == OrderOpen
}
