package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "KRW"

// Money 金额值对象：amount >= 0，currency 非空
type Money struct {
	amount   decimal.Decimal
	currency string
}

func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, Errorf(ErrNegativeAmount, "%s", amount.String())
	}
	if strings.TrimSpace(currency) == "" {
		return Money{}, ErrEmptyCurrency
	}
	return Money{amount: amount, currency: currency}, nil
}

// Won 以默认币种构造
func Won(amount int64) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount), DefaultCurrency)
}

// ParseMoney 解析十进制字符串，币种为空时用 KRW
func ParseMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, Wrap(ErrValidation, err)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return NewMoney(d, currency)
}

func ZeroWon() Money { return Money{amount: decimal.Zero, currency: DefaultCurrency} }

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency)
}

// Subtract 结果重新校验，差为负时返回 ErrNegativeAmount
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency)
}

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// Equal 数值相等（1000 与 1000.00 视为相等）且币种相同
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string { return m.amount.String() + m.currency }

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return Errorf(ErrCurrencyMismatch, "%s vs %s", m.currency, other.currency)
	}
	return nil
}
