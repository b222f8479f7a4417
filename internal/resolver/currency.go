// Package resolver implements find-or-create lookups for the records
// a transfer description references: accounts, currencies, budgets and
// categories. Every lookup tries a numeric id first, then a
// name/code, then creates a record when the reference carries enough
// data. "Not found" is an explicit ok=false, never a sentinel object.
package resolver

import (
	"context"
	"fmt"

	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

// CurrencyResolver finds or creates currency definitions.
type CurrencyResolver struct {
	currencies store.CurrencyStore
	users      store.UserStore
}

// NewCurrencyResolver creates a CurrencyResolver.
func NewCurrencyResolver(currencies store.CurrencyStore, users store.UserStore) *CurrencyResolver {
	return &CurrencyResolver{currencies: currencies, users: users}
}

// Resolve finds a currency by id, then by code, creating one when the
// ref carries code and name. ok is false when nothing matched and
// nothing could be created.
func (r *CurrencyResolver) Resolve(ctx context.Context, ref model.CurrencyRef) (model.Currency, bool, error) {
	if ref.ID != 0 {
		currency, ok, err := r.currencies.CurrencyByID(ctx, ref.ID)
		if err != nil || ok {
			return currency, ok, err
		}
	}
	if ref.Code != "" {
		currency, ok, err := r.currencies.CurrencyByCode(ctx, ref.Code)
		if err != nil || ok {
			return currency, ok, err
		}
	}
	if ref.Code == "" || ref.Name == "" {
		return model.Currency{}, false, nil
	}
	currency := model.Currency{
		Code:          ref.Code,
		Name:          ref.Name,
		Symbol:        ref.Symbol,
		DecimalPlaces: ref.DecimalPlaces,
	}
	if err := r.currencies.CreateCurrency(ctx, &currency); err != nil {
		return model.Currency{}, false, err
	}
	return currency, true, nil
}

// ResolveOrDefault resolves the ref and falls back to the user's
// default currency when the ref resolves to nothing.
func (r *CurrencyResolver) ResolveOrDefault(ctx context.Context, userID uint, ref model.CurrencyRef) (model.Currency, error) {
	currency, ok, err := r.Resolve(ctx, ref)
	if err != nil {
		return model.Currency{}, err
	}
	if ok {
		return currency, nil
	}

	user, ok, err := r.users.UserByID(ctx, userID)
	if err != nil {
		return model.Currency{}, err
	}
	if !ok {
		return model.Currency{}, fmt.Errorf("user %d not found", userID)
	}
	currency, ok, err = r.currencies.CurrencyByID(ctx, user.DefaultCurrencyID)
	if err != nil {
		return model.Currency{}, err
	}
	if !ok {
		return model.Currency{}, fmt.Errorf("user %d has no usable default currency", userID)
	}
	return currency, nil
}
