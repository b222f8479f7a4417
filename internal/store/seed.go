package store

import (
	"context"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

// DefaultCurrencies returns the currency seed set installed on init.
func DefaultCurrencies() []model.Currency {
	return []model.Currency{
		{Code: "EUR", Name: "Euro", Symbol: "€", DecimalPlaces: 2},
		{Code: "USD", Name: "US Dollar", Symbol: "$", DecimalPlaces: 2},
		{Code: "GBP", Name: "British Pound", Symbol: "£", DecimalPlaces: 2},
	}
}

// SeedCurrencies creates any default currency not already present.
func SeedCurrencies(ctx context.Context, s CurrencyStore) error {
	for _, c := range DefaultCurrencies() {
		_, ok, err := s.CurrencyByCode(ctx, c.Code)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		currency := c
		if err := s.CreateCurrency(ctx, &currency); err != nil {
			return err
		}
	}
	return nil
}
