package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount денежная сумма в минимальных единицах валюты.
// Передается по сети строго как целочисленная строка, без плавающей точки.
type Amount int64

var (
	// ErrInvalidAmount сумма не является целочисленной строкой
	ErrInvalidAmount = errors.New("invalid monetary amount")

	// ErrNegativeAmount отрицательная сумма
	ErrNegativeAmount = errors.New("negative monetary amount")

	// ErrInvalidPercentage процент скидки вне диапазона или не является числом
	ErrInvalidPercentage = errors.New("invalid discount percentage")
)

// Parse разбирает целочисленную строку в Amount.
// Допускаются только десятичные цифры: никаких знаков, разделителей и дробей.
func Parse(s string) (Amount, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q is not an integer string", ErrInvalidAmount, s)
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}

	return Amount(v), nil
}

// ParsePositive разбирает целочисленную строку и требует сумму строго больше нуля
func ParsePositive(s string) (Amount, error) {
	a, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if a <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, s)
	}
	return a, nil
}

// String возвращает каноничную целочисленную строку
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// IsPositive проверяет, что сумма строго больше нуля
func (a Amount) IsPositive() bool {
	return a > 0
}

// MarshalJSON сериализует сумму как целочисленную строку в кавычках
func (a Amount) MarshalJSON() ([]byte, error) {
	if a < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeAmount, int64(a))
	}
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON принимает и строку-целое, и голое целое число.
// Бэкенд всегда шлет строки, но голые числа встречаются в старых ответах.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}

// ApplyDiscount применяет процент скидки к сумме.
// Процент передается строкой, как он приходит из формы; значение должно быть
// конечным числом в диапазоне [0, 100]. Результат округляется до целой единицы
// валюты (половина вверх), чтобы не накапливать дробный дрейф.
func ApplyDiscount(a Amount, percentage string) (Amount, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(percentage))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercentage, percentage)
	}

	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		return 0, fmt.Errorf("%w: %s is out of range [0, 100]", ErrInvalidPercentage, p)
	}

	factor := decimal.NewFromInt(100).Sub(p).Div(decimal.NewFromInt(100))
	discounted := decimal.NewFromInt(int64(a)).Mul(factor).Round(0)

	return Amount(discounted.IntPart()), nil
}
