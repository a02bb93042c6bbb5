package dto

import "rigrent/internal/domain/shared/money"

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
		Display:  value.String(),
	}
}

// ToMoney converts a client amount in cents. An empty currency falls back to
// the given default.
func (m MoneyDTO) ToMoney(defaultCurrency string) (money.Money, error) {
	currency := m.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return money.New(m.Amount, currency)
}
